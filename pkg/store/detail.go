package store

import "semicolon/pkg/domain"

// QuestionDetailState is a single question with its answers.
type QuestionDetailState struct {
	Question *domain.Question `json:"question"`
	Answers  []domain.Answer  `json:"answers"`
	Loading  bool             `json:"loading"`
	Error    string           `json:"error,omitempty"`
}

func initialDetailState() QuestionDetailState {
	return QuestionDetailState{Answers: []domain.Answer{}}
}

// QuestionDetailStore holds the question currently being viewed.
type QuestionDetailStore struct {
	state *Writable[QuestionDetailState]
}

func NewQuestionDetailStore() *QuestionDetailStore {
	return &QuestionDetailStore{state: NewWritable(initialDetailState())}
}

func (s *QuestionDetailStore) Get() QuestionDetailState { return s.state.Get() }

func (s *QuestionDetailStore) Subscribe(fn func(QuestionDetailState)) func() {
	return s.state.Subscribe(fn)
}

// SetQuestion shows q and clears any error.
func (s *QuestionDetailStore) SetQuestion(q domain.Question) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		st.Question = &q
		st.Error = ""
		return st
	})
}

func (s *QuestionDetailStore) SetAnswers(answers []domain.Answer) {
	list := append([]domain.Answer{}, answers...)
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		st.Answers = list
		return st
	})
}

func (s *QuestionDetailStore) SetLoading(loading bool) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		st.Loading = loading
		return st
	})
}

// SetError records msg and ends loading.
func (s *QuestionDetailStore) SetError(msg string) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		st.Error = msg
		st.Loading = false
		return st
	})
}

// UpdateQuestion merges patch into the shown question, if any.
func (s *QuestionDetailStore) UpdateQuestion(patch domain.QuestionUpdate) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		if st.Question == nil {
			return st
		}
		q := patch.Apply(*st.Question)
		st.Question = &q
		return st
	})
}

// AddAnswer appends a newly posted answer.
func (s *QuestionDetailStore) AddAnswer(a domain.Answer) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		list := make([]domain.Answer, 0, len(st.Answers)+1)
		list = append(list, st.Answers...)
		st.Answers = append(list, a)
		return st
	})
}

// UpdateAnswer merges patch into the answer with id.
func (s *QuestionDetailStore) UpdateAnswer(id int64, patch domain.AnswerUpdate) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		st.Answers = mapMatching(st.Answers, func(a domain.Answer) bool { return a.ID == id }, patch.Apply)
		return st
	})
}

// ReplaceAnswer swaps in a fresh server copy of a, matched by id.
func (s *QuestionDetailStore) ReplaceAnswer(a domain.Answer) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		st.Answers = mapMatching(st.Answers, func(cur domain.Answer) bool { return cur.ID == a.ID },
			func(domain.Answer) domain.Answer { return a })
		return st
	})
}

// RemoveAnswer drops every answer with id. Absent ids change nothing.
func (s *QuestionDetailStore) RemoveAnswer(id int64) {
	s.state.Update(func(st QuestionDetailState) QuestionDetailState {
		kept := filterOut(st.Answers, func(a domain.Answer) bool { return a.ID == id })
		if len(kept) == len(st.Answers) {
			return st
		}
		st.Answers = kept
		return st
	})
}

// Reset returns to the initial state.
func (s *QuestionDetailStore) Reset() {
	s.state.Set(initialDetailState())
}

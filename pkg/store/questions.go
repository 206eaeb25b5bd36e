package store

import "semicolon/pkg/domain"

const (
	defaultPage    = 1
	defaultPerPage = 20
)

// QuestionsState is the paginated questions list shown to the user. Total is
// the server-reported count and may exceed len(Items), which holds only the
// loaded page.
type QuestionsState struct {
	Items   []domain.Question `json:"items"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

func initialQuestionsState() QuestionsState {
	return QuestionsState{
		Items:   []domain.Question{},
		Page:    defaultPage,
		PerPage: defaultPerPage,
	}
}

// QuestionsStore holds the questions list.
type QuestionsStore struct {
	state *Writable[QuestionsState]
}

// NewQuestionsStore returns an empty list on page 1, 20 per page.
func NewQuestionsStore() *QuestionsStore {
	return &QuestionsStore{state: NewWritable(initialQuestionsState())}
}

func (s *QuestionsStore) Get() QuestionsState { return s.state.Get() }

func (s *QuestionsStore) Subscribe(fn func(QuestionsState)) func() {
	return s.state.Subscribe(fn)
}

// SetList replaces the items; total becomes len(items). Clears any error.
func (s *QuestionsStore) SetList(items []domain.Question) {
	s.SetListWithTotal(items, len(items))
}

// SetListWithTotal replaces the items and stores total verbatim. Clears any
// error.
func (s *QuestionsStore) SetListWithTotal(items []domain.Question, total int) {
	list := append([]domain.Question{}, items...)
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.Items = list
		st.Total = total
		st.Error = ""
		return st
	})
}

func (s *QuestionsStore) SetLoading(loading bool) {
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.Loading = loading
		return st
	})
}

// SetError records msg and ends loading.
func (s *QuestionsStore) SetError(msg string) {
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.Error = msg
		st.Loading = false
		return st
	})
}

// SetPage moves to page p; values below 1 select page 1.
func (s *QuestionsStore) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.Page = p
		return st
	})
}

// SetPerPage changes the page size; values below 1 become 1.
func (s *QuestionsStore) SetPerPage(n int) {
	if n < 1 {
		n = 1
	}
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.PerPage = n
		return st
	})
}

// AddQuestion puts a newly created question at the front.
func (s *QuestionsStore) AddQuestion(q domain.Question) {
	s.state.Update(func(st QuestionsState) QuestionsState {
		list := make([]domain.Question, 0, len(st.Items)+1)
		list = append(list, q)
		st.Items = append(list, st.Items...)
		st.Total++
		return st
	})
}

// UpdateQuestion merges patch into the question with id. Order and length
// are unchanged.
func (s *QuestionsStore) UpdateQuestion(id int64, patch domain.QuestionUpdate) {
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.Items = mapMatching(st.Items, func(q domain.Question) bool { return q.ID == id }, patch.Apply)
		return st
	})
}

// ReplaceQuestion swaps in a fresh server copy of q, matched by id.
func (s *QuestionsStore) ReplaceQuestion(q domain.Question) {
	s.state.Update(func(st QuestionsState) QuestionsState {
		st.Items = mapMatching(st.Items, func(cur domain.Question) bool { return cur.ID == q.ID },
			func(domain.Question) domain.Question { return q })
		return st
	})
}

// RemoveQuestion drops every question with id and lowers total by one, since
// a single record was deleted. Removing an absent id changes nothing.
func (s *QuestionsStore) RemoveQuestion(id int64) {
	s.state.Update(func(st QuestionsState) QuestionsState {
		kept := filterOut(st.Items, func(q domain.Question) bool { return q.ID == id })
		if len(kept) == len(st.Items) {
			return st
		}
		st.Items = kept
		st.Total--
		if st.Total < 0 {
			st.Total = 0
		}
		return st
	})
}

// Reset returns to the initial state.
func (s *QuestionsStore) Reset() {
	s.state.Set(initialQuestionsState())
}

func mapMatching[T any](items []T, match func(T) bool, fn func(T) T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		if match(item) {
			item = fn(item)
		}
		out[i] = item
	}
	return out
}

func filterOut[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}

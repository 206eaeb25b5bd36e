package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"semicolon/internal/util"
	"semicolon/pkg/answerclient"
	"semicolon/pkg/apiclient"
	"semicolon/pkg/authclient"
	"semicolon/pkg/domain"
	"semicolon/pkg/questionclient"
	"semicolon/pkg/storage"
	"semicolon/pkg/store"
)

// Config holds runtime configuration for the client application.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	PerPage        int
	TokenLeeway    time.Duration
	Storage        storage.Storage
	Logger         *slog.Logger
	// Transport wraps the HTTP transport; nil keeps the default.
	Transport func(http.RoundTripper) http.RoundTripper
}

// App wires the API modules to the stores. Each action calls the backend and
// then applies the outcome to the matching store, so subscribers only ever
// see server-confirmed state.
type App struct {
	session   *store.AuthStore
	questions *store.QuestionsStore
	detail    *store.QuestionDetailStore

	auth      *authclient.Client
	questionc *questionclient.Client
	answerc   *answerclient.Client

	logger *slog.Logger

	listSeq   atomic.Uint64
	listMu    sync.Mutex
	detailSeq atomic.Uint64
	detailMu  sync.Mutex

	refresh singleflight.Group
}

// New constructs the application. The session is rehydrated from
// cfg.Storage before any request is made.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PerPage < 0 {
		return nil, errors.New("per page must be >= 0")
	}

	session := store.NewAuthStore(cfg.Storage,
		store.WithTokenLeeway(cfg.TokenLeeway),
		store.WithLogger(logger),
	)
	opts := []apiclient.Option{apiclient.WithTokenSource(session)}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.RequestTimeout))
	}
	if cfg.Transport != nil {
		opts = append(opts, apiclient.WithTransport(cfg.Transport))
	}
	api := apiclient.New(cfg.APIURL, opts...)

	questions := store.NewQuestionsStore()
	if cfg.PerPage > 0 {
		questions.SetPerPage(cfg.PerPage)
	}

	return &App{
		session:   session,
		questions: questions,
		detail:    store.NewQuestionDetailStore(),
		auth:      authclient.NewClient(api),
		questionc: questionclient.NewClient(api),
		answerc:   answerclient.NewClient(api),
		logger:    logger,
	}, nil
}

// Session is the authenticated session store.
func (a *App) Session() *store.AuthStore { return a.session }

// Questions is the paginated question list store.
func (a *App) Questions() *store.QuestionsStore { return a.questions }

// QuestionDetail is the store for the question being viewed.
func (a *App) QuestionDetail() *store.QuestionDetailStore { return a.detail }

// SignUp registers an account. It does not sign in.
func (a *App) SignUp(ctx context.Context, req domain.RegisterRequest) (domain.User, string, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return domain.User{}, "", ErrCredentialsRequired
	}
	return a.auth.Register(ctx, req)
}

// SignIn obtains a token, resolves its user with that token and only then
// stores the pair, so the session never holds a token without a user.
func (a *App) SignIn(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrCredentialsRequired
	}
	tok, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return domain.User{}, err
	}
	user, err := a.auth.CurrentUserWithToken(ctx, tok.AccessToken)
	if err != nil {
		return domain.User{}, err
	}
	if err := a.session.Login(tok.AccessToken, user); err != nil {
		return domain.User{}, err
	}
	a.logger.Info("signed in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// SignOut forgets the session locally. There is no server-side logout.
func (a *App) SignOut() error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	a.logger.Info("signed out")
	return nil
}

// RefreshUser reloads the signed-in user. Concurrent calls share one
// request. A 401 means the stored token is no longer accepted and signs out.
func (a *App) RefreshUser(ctx context.Context) (domain.User, error) {
	if !a.session.Get().Authenticated() {
		return domain.User{}, store.ErrNotAuthenticated
	}
	v, err, _ := a.refresh.Do("me", func() (any, error) {
		user, err := a.auth.CurrentUser(ctx)
		if err != nil {
			if apiclient.StatusCode(err) == http.StatusUnauthorized {
				a.logger.Warn("stored token rejected, signing out", "err", err)
				if lerr := a.session.Logout(); lerr != nil {
					return domain.User{}, errors.Join(err, lerr)
				}
			}
			return domain.User{}, err
		}
		if err := a.session.UpdateUser(user); err != nil {
			return domain.User{}, err
		}
		return user, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return v.(domain.User), nil
}

// LoadQuestions fetches page of the question list. Pages below 1 load page 1.
func (a *App) LoadQuestions(ctx context.Context, page int) error {
	seq := a.listSeq.Add(1)
	a.questions.SetPage(page)
	st := a.questions.Get()
	a.questions.SetLoading(true)

	items, err := a.questionc.List(ctx, questionclient.ListParams{
		Skip:  (st.Page - 1) * st.PerPage,
		Limit: st.PerPage,
	})

	a.listMu.Lock()
	defer a.listMu.Unlock()
	if a.listSeq.Load() != seq {
		util.LoggerFromContext(ctx).Debug("discarding stale question list", "page", st.Page)
		return ErrStaleResult
	}
	if err != nil {
		a.questions.SetError(apiclient.Message(err))
		return err
	}
	a.questions.SetList(items)
	a.questions.SetLoading(false)
	return nil
}

// LoadQuestion fetches a question and its answers concurrently. Opening a
// different question clears the previous one first.
func (a *App) LoadQuestion(ctx context.Context, id int64) error {
	seq := a.detailSeq.Add(1)
	if cur := a.detail.Get().Question; cur != nil && cur.ID != id {
		a.detail.Reset()
	}
	a.detail.SetLoading(true)

	var (
		question domain.Question
		answers  []domain.Answer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := a.questionc.Get(gctx, id)
		question = q
		return err
	})
	g.Go(func() error {
		items, err := a.questionc.Answers(gctx, id)
		answers = items
		return err
	})
	err := g.Wait()

	a.detailMu.Lock()
	defer a.detailMu.Unlock()
	if a.detailSeq.Load() != seq {
		util.LoggerFromContext(ctx).Debug("discarding stale question", "question_id", id)
		return ErrStaleResult
	}
	if err != nil {
		a.detail.SetError(apiclient.Message(err))
		return err
	}
	a.detail.SetQuestion(question)
	a.detail.SetAnswers(answers)
	a.detail.SetLoading(false)
	return nil
}

// AskQuestion creates a question and puts it at the top of the list.
func (a *App) AskQuestion(ctx context.Context, req domain.QuestionCreate) (domain.Question, error) {
	q, err := a.questionc.Create(ctx, req)
	if err != nil {
		return domain.Question{}, err
	}
	a.questions.AddQuestion(q)
	return q, nil
}

// EditQuestion updates a question and reflects the change wherever it is
// shown.
func (a *App) EditQuestion(ctx context.Context, id int64, patch domain.QuestionUpdate) (domain.Question, error) {
	q, err := a.questionc.Update(ctx, id, patch)
	if err != nil {
		return domain.Question{}, err
	}
	a.applyQuestion(id, q, patch)
	return q, nil
}

// DeleteQuestion removes a question from the list and closes it if open.
func (a *App) DeleteQuestion(ctx context.Context, id int64) error {
	if _, err := a.questionc.Delete(ctx, id); err != nil {
		return err
	}
	a.questions.RemoveQuestion(id)
	if a.showing(id) {
		a.detail.Reset()
	}
	return nil
}

func (a *App) VoteQuestion(ctx context.Context, id int64, v domain.Vote) (domain.Question, error) {
	q, err := a.questionc.Vote(ctx, id, v)
	if err != nil {
		return domain.Question{}, err
	}
	a.applyQuestion(id, q, domain.QuestionUpdate{})
	return q, nil
}

// PostAnswer answers questionID and appends the answer if that question is
// open.
func (a *App) PostAnswer(ctx context.Context, questionID int64, content string) (domain.Answer, error) {
	ans, err := a.answerc.Create(ctx, domain.AnswerCreate{QuestionID: questionID, Content: content})
	if err != nil {
		return domain.Answer{}, err
	}
	if a.showing(questionID) {
		a.detail.AddAnswer(ans)
	}
	return ans, nil
}

func (a *App) EditAnswer(ctx context.Context, id int64, patch domain.AnswerUpdate) (domain.Answer, error) {
	ans, err := a.answerc.Update(ctx, id, patch)
	if err != nil {
		return domain.Answer{}, err
	}
	a.applyAnswer(id, ans, patch)
	return ans, nil
}

func (a *App) DeleteAnswer(ctx context.Context, id int64) error {
	if _, err := a.answerc.Delete(ctx, id); err != nil {
		return err
	}
	a.detail.RemoveAnswer(id)
	return nil
}

func (a *App) VoteAnswer(ctx context.Context, id int64, v domain.Vote) (domain.Answer, error) {
	ans, err := a.answerc.Vote(ctx, id, v)
	if err != nil {
		return domain.Answer{}, err
	}
	a.applyAnswer(id, ans, domain.AnswerUpdate{})
	return ans, nil
}

// AcceptAnswer accepts an answer and marks its question solved.
func (a *App) AcceptAnswer(ctx context.Context, id int64) (domain.Answer, error) {
	ans, err := a.answerc.Accept(ctx, id)
	if err != nil {
		return domain.Answer{}, err
	}
	accepted := true
	a.applyAnswer(id, ans, domain.AnswerUpdate{IsAccepted: &accepted})

	questionID := ans.QuestionID
	if questionID == 0 {
		if q := a.detail.Get().Question; q != nil {
			questionID = q.ID
		}
	}
	if questionID != 0 {
		solved := true
		patch := domain.QuestionUpdate{IsSolved: &solved}
		a.questions.UpdateQuestion(questionID, patch)
		if a.showing(questionID) {
			a.detail.UpdateQuestion(patch)
		}
	}
	return ans, nil
}

func (a *App) showing(questionID int64) bool {
	q := a.detail.Get().Question
	return q != nil && q.ID == questionID
}

// applyQuestion prefers the server copy; when the response carried none it
// falls back to merging patch.
func (a *App) applyQuestion(id int64, server domain.Question, patch domain.QuestionUpdate) {
	if server.ID == id {
		a.questions.ReplaceQuestion(server)
		if a.showing(id) {
			a.detail.SetQuestion(server)
		}
		return
	}
	a.questions.UpdateQuestion(id, patch)
	if a.showing(id) {
		a.detail.UpdateQuestion(patch)
	}
}

func (a *App) applyAnswer(id int64, server domain.Answer, patch domain.AnswerUpdate) {
	if server.ID == id {
		a.detail.ReplaceAnswer(server)
		return
	}
	a.detail.UpdateAnswer(id, patch)
}

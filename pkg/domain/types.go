package domain

import (
	"errors"
	"time"
)

// ErrInvalidVote indicates a vote value other than +1 or -1.
var ErrInvalidVote = errors.New("vote must be 1 or -1")

type Vote int

const (
	Upvote   Vote = 1
	Downvote Vote = -1
)

// Valid reports whether v is an up or down vote.
func (v Vote) Valid() bool {
	return v == Upvote || v == Downvote
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Question struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	Views     int       `json:"views"`
	Votes     int       `json:"votes"`
	IsSolved  bool      `json:"is_solved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *User     `json:"author,omitempty"`
	Answers   []Answer  `json:"answers,omitempty"`
}

type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	AuthorID   int64     `json:"author_id"`
	Content    string    `json:"content"`
	Votes      int       `json:"votes"`
	IsAccepted bool      `json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Author     *User     `json:"author,omitempty"`
}

type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Token is the OAuth2 pair issued by the token endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Envelope is the wrapped success shape used by some routes.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type QuestionCreate struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// QuestionUpdate carries only the fields being changed. It doubles as the
// merge patch applied to locally held questions.
type QuestionUpdate struct {
	Title    *string  `json:"title,omitempty"`
	Content  *string  `json:"content,omitempty"`
	IsSolved *bool    `json:"is_solved,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Apply returns q with the set fields of u merged in.
func (u QuestionUpdate) Apply(q Question) Question {
	if u.Title != nil {
		q.Title = *u.Title
	}
	if u.Content != nil {
		q.Content = *u.Content
	}
	if u.IsSolved != nil {
		q.IsSolved = *u.IsSolved
	}
	if u.Tags != nil {
		q.Tags = append([]string(nil), u.Tags...)
	}
	return q
}

type AnswerCreate struct {
	QuestionID int64  `json:"question_id"`
	Content    string `json:"content"`
}

// AnswerUpdate carries only the fields being changed.
type AnswerUpdate struct {
	Content    *string `json:"content,omitempty"`
	IsAccepted *bool   `json:"is_accepted,omitempty"`
}

// Apply returns a with the set fields of u merged in.
func (u AnswerUpdate) Apply(a Answer) Answer {
	if u.Content != nil {
		a.Content = *u.Content
	}
	if u.IsAccepted != nil {
		a.IsAccepted = *u.IsAccepted
	}
	return a
}

type VoteRequest struct {
	Vote Vote `json:"vote"`
}

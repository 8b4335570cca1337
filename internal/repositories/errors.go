package repositories

import "fmt"

// RepositoryError wraps storage failures with operation context
type RepositoryError struct {
	Op     string
	Key    string
	Err    error
	Detail string
}

func (e *RepositoryError) Error() string {
	msg := fmt.Sprintf("repository %s failed", e.Op)
	if e.Key != "" {
		msg += " for " + e.Key
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a wrapped repository error
func NewRepositoryError(op, key string, err error, detail string) *RepositoryError {
	return &RepositoryError{Op: op, Key: key, Err: err, Detail: detail}
}

// NotFoundError reports a missing record
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// AlreadyExistsError reports a duplicate record
type AlreadyExistsError struct {
	Kind string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Kind, e.Key)
}

// IssueNotFoundError creates a not-found error for an issue
func IssueNotFoundError(id string) error {
	return &NotFoundError{Kind: "issue", Key: id}
}

// IssueAlreadyExistsError creates a duplicate error for an issue
func IssueAlreadyExistsError(id string) error {
	return &AlreadyExistsError{Kind: "issue", Key: id}
}

// JobNotFoundError creates a not-found error for a job
func JobNotFoundError(id string) error {
	return &NotFoundError{Kind: "job", Key: id}
}

// JobAlreadyExistsError creates a duplicate error for a job
func JobAlreadyExistsError(id string) error {
	return &AlreadyExistsError{Kind: "job", Key: id}
}

package classroom

import (
	"time"

	"github.com/trezcool/darasa/core/user"
)

// NewServiceMock returns a Service with a controllable clock.
func NewServiceMock(repo Repository, usrRepo user.Repository, nowFunc func() time.Time) Service {
	return &service{
		repo:    repo,
		usrRepo: usrRepo,
		nowFunc: nowFunc,
	}
}

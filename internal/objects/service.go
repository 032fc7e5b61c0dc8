package objects

import (
	"context"
	"log/slog"
)

// Service validates requests and delegates storage to a Repository.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService creates a new object service.
func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// List returns every object in creation order.
func (s *Service) List(ctx context.Context) ([]UserObject, error) {
	return s.repo.List(ctx)
}

// Get returns one object or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (UserObject, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new object.
func (s *Service) Create(ctx context.Context, p CreatePayload) (UserObject, error) {
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return UserObject{}, err
	}
	obj, err := s.repo.Create(ctx, p)
	if err != nil {
		return UserObject{}, err
	}
	s.log.Info("object created", "id", obj.ID, "name", obj.Name, "lat", obj.Geom.Lat(), "lon", obj.Geom.Lon())
	return obj, nil
}

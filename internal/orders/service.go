package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbpkg "github.com/gtclicks/settlement-service/pkg/db"
	"github.com/gtclicks/settlement-service/pkg/db/models"
	pkgerrors "github.com/gtclicks/settlement-service/pkg/errors"
)

// Service exposes order reads for the API surface. Order state changes happen
// through settlement processing, never directly.
type Service interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo Repository
}

// NewService wires an orders service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

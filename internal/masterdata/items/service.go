package items

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/acu-erp/acu-erp/internal/kv"
	"github.com/acu-erp/acu-erp/internal/platform/httpx"
	"github.com/acu-erp/acu-erp/internal/records"
)

// Service manages the item master of a workspace.
type Service struct {
	*records.Set[Item]
	validate *validator.Validate
}

// NewService binds the service to store.
func NewService(store kv.Store) *Service {
	s := &Service{Set: records.New[Item](store, kv.KeyItemMaster), validate: validator.New()}
	s.Check = s.check
	return s
}

// Items returns the decoded entries.
func (s *Service) Items(ctx context.Context, workspace string) ([]Item, error) {
	return s.Load(ctx, workspace)
}

// CodeForName returns the code of the first entry named name, or "" when none matches.
func (s *Service) CodeForName(ctx context.Context, workspace, name string) (string, error) {
	entries, err := s.Load(ctx, workspace)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if string(e.ItemName) == name {
			return string(e.ItemCode), nil
		}
	}
	return "", nil
}

func (s *Service) check(item Item) error {
	form := ItemForm{
		ItemName: strings.TrimSpace(item.ItemName.String()),
		ItemCode: strings.TrimSpace(item.ItemCode.String()),
	}
	return httpx.Validate(s.validate, form)
}

// ABOUTME: Helpers that turn store outcomes into domain errors for the tool executor
// ABOUTME: Store error codes are carried through so transports can surface them

package cms

import (
	"context"
	"fmt"

	"github.com/2389/cms-mcp/internal/packs"
	"github.com/2389/cms-mcp/internal/store"
)

func domainError(code int, format string, args ...any) *packs.DomainError {
	de := packs.NewDomainError(format, args...)
	de.Code = code
	return de
}

// failed reports a store error raised while performing action. Store domain
// errors keep their code; anything else is left for the executor to wrap.
func failed(action string, err error) error {
	if store.IsError(err) {
		de := packs.WrapDomainError(err)
		de.Message = packs.DomainErrorPrefix + "Failed to " + action + ": " + err.Error()
		return de
	}
	return fmt.Errorf("%s: %w", action, err)
}

func requireType(ctx context.Context, st store.Store, name string) error {
	ok, err := st.TypeExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(store.CodeNotFound, "Content type '%s' does not exist", name)
	}
	return nil
}

func requireTaxonomy(ctx context.Context, st store.Store, name string) error {
	ok, err := st.TaxonomyExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return domainError(store.CodeNotFound, "Taxonomy '%s' does not exist", name)
	}
	return nil
}

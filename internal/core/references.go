package core

import "context"

// referenceResolver caches get-or-create results for the life of one import,
// so rows naming the same organization share a single entity and a single query.
type referenceResolver struct {
	store         ReferenceStore
	organizations map[string]Organization
	programs      map[string]Program
}

func newReferenceResolver(store ReferenceStore) *referenceResolver {
	return &referenceResolver{
		store:         store,
		organizations: make(map[string]Organization),
		programs:      make(map[string]Program),
	}
}

func (r *referenceResolver) organization(ctx context.Context, name string) (Organization, error) {
	if org, ok := r.organizations[name]; ok {
		return org, nil
	}
	org, err := r.store.GetOrCreateOrganization(ctx, name)
	if err != nil {
		return Organization{}, err
	}
	r.organizations[name] = org
	return org, nil
}

func (r *referenceResolver) program(ctx context.Context, name string) (Program, error) {
	if p, ok := r.programs[name]; ok {
		return p, nil
	}
	p, err := r.store.GetOrCreateProgram(ctx, name)
	if err != nil {
		return Program{}, err
	}
	r.programs[name] = p
	return p, nil
}

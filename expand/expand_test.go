package expand

import (
	"reflect"
	"testing"

	"github.com/justapithecus/chocoflow/types"
)

type fakeListDocService struct {
	specs map[string][]types.PackageSpec
}

func (f fakeListDocService) Load(path string) ([]types.PackageSpec, error) {
	specs, ok := f.specs[path]
	if !ok {
		return nil, types.ErrListDocumentMissing
	}
	return specs, nil
}

func knownSources(known ...string) SourceTypeResolver {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	return func(source string) (string, bool) {
		if set[source] {
			return source, true
		}
		return "", false
	}
}

func collect(cmd *types.Configuration, svc fakeListDocService, resolve SourceTypeResolver) []Item {
	var items []Item
	for item := range Expand(cmd, svc, resolve) {
		items = append(items, item)
	}
	return items
}

func TestExpandListDocumentWithDisabledEntry(t *testing.T) {
	cmd := &types.Configuration{PackageNames: "packages.config"}
	svc := fakeListDocService{specs: map[string][]types.PackageSpec{
		"packages.config": {
			{ID: "a", ExecutionTimeoutSeconds: -1},
			{ID: "b", Disabled: true, ExecutionTimeoutSeconds: -1},
			{ID: "c", Source: "internal", ExecutionTimeoutSeconds: -1},
		},
	}}

	items := collect(cmd, svc, knownSources("internal"))
	if len(items) != 3 {
		t.Fatalf("expected 3 items (a, c, remainder), got %d", len(items))
	}

	if items[0].Config == nil || items[0].Config.PackageNames != "a" {
		t.Fatalf("expected first item package name 'a', got %+v", items[0])
	}
	if items[1].Config == nil || items[1].Config.PackageNames != "c" || items[1].Config.SourceType != "internal" {
		t.Fatalf("expected second item 'c' with sourceType internal, got %+v", items[1].Config)
	}
	if items[2].Config == nil || items[2].Config.PackageNames != "" {
		t.Fatalf("expected trailing remainder config with empty package names, got %+v", items[2].Config)
	}
}

func TestExpandMissingListDocumentYieldsErrorResult(t *testing.T) {
	cmd := &types.Configuration{PackageNames: "missing.config"}
	svc := fakeListDocService{specs: map[string][]types.PackageSpec{}}

	items := collect(cmd, svc, nil)
	if len(items) != 2 {
		t.Fatalf("expected error item plus remainder, got %d", len(items))
	}
	if items[0].MissingDoc == nil {
		t.Fatal("expected first item to carry a missing-document error result")
	}
	if items[0].MissingDoc.FirstMessage(types.MessageError) == "" {
		t.Fatal("expected an error message on the missing-document result")
	}
}

func TestExpandIsIdempotentUnderDeepCopy(t *testing.T) {
	cmd := &types.Configuration{
		PackageNames: "packages.config",
		Features:     types.Features{PromptForConfirmation: true},
	}
	svc := fakeListDocService{specs: map[string][]types.PackageSpec{
		"packages.config": {
			{ID: "a", Confirm: true, ExecutionTimeoutSeconds: -1},
		},
	}}

	firstRun := collect(cmd, svc, nil)
	secondRun := collect(cmd, svc, nil)

	if len(firstRun) != len(secondRun) {
		t.Fatalf("expansion lengths differ: %d vs %d", len(firstRun), len(secondRun))
	}
	for i := range firstRun {
		if !reflect.DeepEqual(firstRun[i].Config, secondRun[i].Config) {
			t.Fatalf("item %d differs between runs:\n%+v\n%+v", i, firstRun[i].Config, secondRun[i].Config)
		}
	}

	if !cmd.Features.PromptForConfirmation {
		t.Fatal("expanding must not mutate the command-level Configuration's features")
	}
}

func TestExpandPlainPackageNamesWithNoListDocument(t *testing.T) {
	cmd := &types.Configuration{PackageNames: "foo;bar"}
	svc := fakeListDocService{}

	items := collect(cmd, svc, nil)
	if len(items) != 1 {
		t.Fatalf("expected a single remainder item, got %d", len(items))
	}
	if items[0].Config.PackageNames != "foo;bar" {
		t.Fatalf("expected package names preserved verbatim, got %q", items[0].Config.PackageNames)
	}
}

package catalog

import (
	"context"
	"net/url"
	"testing"

	pkgerrors "github.com/veloura/storefront/pkg/errors"
)

type stubUpstream struct {
	calls   []string
	queries []url.Values
	err     error
	fill    func(out any)
}

func (s *stubUpstream) DoServiceJSON(ctx context.Context, method, subpath string, query url.Values, body, out any) error {
	s.calls = append(s.calls, method+" "+subpath)
	s.queries = append(s.queries, query)
	if s.err != nil {
		return s.err
	}
	if s.fill != nil {
		s.fill(out)
	}
	return nil
}

func TestListDefaultsPagination(t *testing.T) {
	stub := &stubUpstream{fill: func(out any) {
		*(out.(*[]Product)) = []Product{{ID: 1, Name: "Mug"}}
	}}
	svc, err := NewService(stub, "/admin/v1")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	products, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Mug" {
		t.Fatalf("unexpected products %+v", products)
	}
	if got := s0(stub.queries).Get("per_page"); got != "24" {
		t.Fatalf("per_page = %q", got)
	}
	if got := s0(stub.queries).Get("page"); got != "1" {
		t.Fatalf("page = %q", got)
	}
}

func TestGetRejectsNonPositiveID(t *testing.T) {
	stub := &stubUpstream{}
	svc, _ := NewService(stub, "/admin/v1")

	_, err := svc.Get(context.Background(), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatal("no upstream call expected")
	}
}

func TestGetBuildsPath(t *testing.T) {
	stub := &stubUpstream{fill: func(out any) {
		*(out.(*Product)) = Product{ID: 7, Name: "Lamp"}
	}}
	svc, _ := NewService(stub, "/admin/v1")

	product, err := svc.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if product.Name != "Lamp" {
		t.Fatalf("product = %+v", product)
	}
	if stub.calls[0] != "GET /admin/v1/products/7" {
		t.Fatalf("call = %q", stub.calls[0])
	}
}

func s0(queries []url.Values) url.Values {
	if len(queries) == 0 {
		return url.Values{}
	}
	return queries[0]
}

package scrape

import (
	"context"
	"errors"
)

// fakeDriver is a func-field test double for Driver. Evaluate dispatch in
// tests keys on the out parameter's type, which uniquely identifies the
// interaction being simulated.
type fakeDriver struct {
	NavigateFn  func(ctx context.Context, url string) error
	EvaluateFn  func(ctx context.Context, expr string, out any) error
	OuterHTMLFn func(ctx context.Context, selector string) (string, error)
	CloseFn     func() error

	closed bool
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	if d.NavigateFn != nil {
		return d.NavigateFn(ctx, url)
	}
	return nil
}

func (d *fakeDriver) Evaluate(ctx context.Context, expr string, out any) error {
	if d.EvaluateFn != nil {
		return d.EvaluateFn(ctx, expr, out)
	}
	return nil
}

func (d *fakeDriver) OuterHTML(ctx context.Context, selector string) (string, error) {
	if d.OuterHTMLFn != nil {
		return d.OuterHTMLFn(ctx, selector)
	}
	return "", errors.New("no snapshot configured")
}

func (d *fakeDriver) Close() error {
	d.closed = true
	if d.CloseFn != nil {
		return d.CloseFn()
	}
	return nil
}

// fakeSession is a func-field test double for Session.
type fakeSession struct {
	CheckAliveFn func(ctx context.Context) error
	NewPageFn    func(ctx context.Context) (Driver, error)
}

func (s *fakeSession) CheckAlive(ctx context.Context) error {
	if s.CheckAliveFn != nil {
		return s.CheckAliveFn(ctx)
	}
	return nil
}

func (s *fakeSession) NewPage(ctx context.Context) (Driver, error) {
	if s.NewPageFn != nil {
		return s.NewPageFn(ctx)
	}
	return &fakeDriver{}, nil
}

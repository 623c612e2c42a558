package rest

import (
	"context"

	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/service/adminlookup"
)

type lookupServiceMock struct {
	LookupPhoneFunc  func(ctx context.Context, value string) (domain.CacheEntry, error)
	LookupBankFunc   func(ctx context.Context, value string) (domain.CacheEntry, error)
	LookupURLFunc    func(ctx context.Context, value string) (domain.CacheEntry, error)
	LookupByTypeFunc func(ctx context.Context, typeName, value string) (domain.CacheEntry, error)
}

func (m *lookupServiceMock) LookupPhone(ctx context.Context, value string) (domain.CacheEntry, error) {
	return m.LookupPhoneFunc(ctx, value)
}

func (m *lookupServiceMock) LookupBank(ctx context.Context, value string) (domain.CacheEntry, error) {
	return m.LookupBankFunc(ctx, value)
}

func (m *lookupServiceMock) LookupURL(ctx context.Context, value string) (domain.CacheEntry, error) {
	return m.LookupURLFunc(ctx, value)
}

func (m *lookupServiceMock) LookupByType(ctx context.Context, typeName, value string) (domain.CacheEntry, error) {
	return m.LookupByTypeFunc(ctx, typeName, value)
}

type adminReporterMock struct {
	LookupFunc func(ctx context.Context, caller domain.Caller, typeName, rawValue string) (adminlookup.Report, error)
}

func (m *adminReporterMock) Lookup(ctx context.Context, caller domain.Caller, typeName, rawValue string) (adminlookup.Report, error) {
	return m.LookupFunc(ctx, caller, typeName, rawValue)
}

type cacheAdminMock struct {
	InvalidateFunc func(ctx context.Context, caller domain.Caller, et domain.EntityType, raw string) (bool, error)
	StatsFunc      func(ctx context.Context) (domain.CacheStats, error)
}

func (m *cacheAdminMock) Invalidate(ctx context.Context, caller domain.Caller, et domain.EntityType, raw string) (bool, error) {
	return m.InvalidateFunc(ctx, caller, et, raw)
}

func (m *cacheAdminMock) Stats(ctx context.Context) (domain.CacheStats, error) {
	return m.StatsFunc(ctx)
}

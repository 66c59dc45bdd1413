// internal/store/store_test.go
//
// Unit-tests for the MySQL store using sqlmock.
//
// Run: go test ./internal/store -v

package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/depl/internal/jsonobj"
	"github.com/yanizio/depl/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

var deeplinkColumns = []string{
	"workspace_id", "slug", "short_code", "is_random_slug", "app_params",
	"android_parameters", "ios_parameters", "social_meta", "source",
	"click_count", "created_at", "updated_at",
}

func TestDeeplinkBySlug(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(qDeeplinkBySlug)).
		WithArgs("ws-1", "invite").
		WillReturnRows(sqlmock.NewRows(deeplinkColumns).AddRow(
			"ws-1", "invite", "invite", false, []byte(`{"user_id":"42","ref":"mail"}`),
			[]byte(`{}`), []byte(`{}`), []byte(`{"title":"T","description":"D","thumbnail_url":"/x.jpg"}`), "API",
			int64(7), now, now,
		))

	dl, err := s.DeeplinkBySlug(context.Background(), "ws-1", "invite")
	if err != nil {
		t.Fatalf("DeeplinkBySlug: %v", err)
	}
	if dl.ClickCount != 7 || dl.Source != model.SourceAPI || dl.SocialMeta.Title != "T" {
		t.Fatalf("unexpected row: %+v", dl)
	}
	if got := dl.AppParams.QueryString(); got != "user_id=42&ref=mail" {
		t.Fatalf("app_params order lost: %q", got)
	}
	expectMet(t, mock)
}

func TestDeeplinkBySlugNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(qDeeplinkBySlug)).
		WithArgs("ws-1", "missing").
		WillReturnRows(sqlmock.NewRows(deeplinkColumns))

	_, err := s.DeeplinkBySlug(context.Background(), "ws-1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectMet(t, mock)
}

func TestInsertDeeplinkDuplicate(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(qInsertDeeplink)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ws-1-promo' for key 'PRIMARY'"})

	dl := &model.Deeplink{
		WorkspaceID: "ws-1",
		Slug:        "promo",
		ShortCode:   "promo",
		AppParams:   jsonobj.New(),
		Source:      model.SourceAPI,
	}
	err := s.InsertDeeplink(context.Background(), dl)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	expectMet(t, mock)
}

func TestInsertDeeplink(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(qInsertDeeplink)).
		WithArgs("ws-1", "aB3xY9", "aB3xY9", true, sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "API", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.InsertDeeplink(context.Background(), &model.Deeplink{
		WorkspaceID:  "ws-1",
		Slug:         "aB3xY9",
		ShortCode:    "aB3xY9",
		IsRandomSlug: true,
		Source:       model.SourceAPI,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("InsertDeeplink: %v", err)
	}
	expectMet(t, mock)
}

func TestIncrementClickRunsBothUpdates(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(qIncrementDeeplinkClick)).
		WithArgs("ws-1", "promo").
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectExec(regexp.QuoteMeta(qIncrementWorkspaceClick)).
		WithArgs("ws-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.IncrementClick(context.Background(), "ws-1", "promo")
	if err == nil {
		t.Fatal("expected the first failure to surface")
	}
	expectMet(t, mock)
}

func TestWorkspaceByAPIKey(t *testing.T) {
	s, mock := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cols := []string{
		"id", "name", "description", "sub_domain", "api_key", "client_key",
		"current_monthly_create_count", "current_monthly_click_count",
		"next_quota_update_at", "created_at",
	}
	mock.ExpectQuery(regexp.QuoteMeta(qWorkspaceByAPIKey)).
		WithArgs("key-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"ws-1", "Acme", "", "acme", "key-1", "client-1", 3, 9, nil, created,
		))

	ws, err := s.WorkspaceByAPIKey(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("WorkspaceByAPIKey: %v", err)
	}
	if ws.SubDomain != "acme" || ws.MonthlyClickCount != 9 || ws.NextQuotaUpdateAt != nil {
		t.Fatalf("unexpected workspace: %+v", ws)
	}
	expectMet(t, mock)
}

func TestWorkspaceStats(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(qStats)).
		WithArgs("ws-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_links", "total_clicks"}).AddRow(4, 10))

	st, err := s.WorkspaceStats(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("WorkspaceStats: %v", err)
	}
	if st.TotalLinks != 4 || st.TotalClicks != 10 {
		t.Fatalf("stats = %+v", st)
	}
	expectMet(t, mock)
}

func TestInsertAppDuplicatePlatform(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(qInsertApp)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_apps_workspace_platform'"})

	err := s.InsertApp(context.Background(), &model.App{
		ID:           "app-1",
		WorkspaceID:  "ws-1",
		Platform:     model.PlatformAndroid,
		PlatformData: jsonobj.New(),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	expectMet(t, mock)
}

func TestResetQuotas(t *testing.T) {
	s, mock := newMock(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	next := now.AddDate(0, 1, 0)

	mock.ExpectExec(regexp.QuoteMeta(qResetQuotas)).
		WithArgs(next, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.ResetQuotas(context.Background(), now, next)
	if err != nil || n != 3 {
		t.Fatalf("ResetQuotas = %d, %v", n, err)
	}
	expectMet(t, mock)
}

func TestSchemaColumnTypes(t *testing.T) {
	ddl := strings.Join(Schema, "\n")
	col := func(name string) string {
		m := regexp.MustCompile(`(?m)^\s*` + name + `\s+(.*),$`).FindStringSubmatch(ddl)
		if m == nil {
			t.Fatalf("column %s not found", name)
		}
		return m[1]
	}

	for _, name := range []string{"sub_domain", "api_key", "client_key"} {
		if def := col(name); !strings.Contains(def, "COLLATE utf8mb4_bin") {
			t.Errorf("%s = %q, want a binary collation", name, def)
		}
	}
	if def := col("app_params"); !strings.HasPrefix(def, "LONGTEXT") {
		t.Errorf("app_params = %q, want LONGTEXT", def)
	}
	if !strings.Contains(Schema[2], "COLLATE=utf8mb4_bin") {
		t.Error("deeplinks table is not binary-collated")
	}
}

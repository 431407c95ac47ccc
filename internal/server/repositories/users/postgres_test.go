package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/auctionhost/internal/common"
	"github.com/dmitrijs2005/auctionhost/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(site_name,\s*username,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("north", "alice", "$argon2id$hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{SiteName: "north", Username: "alice", PasswordHash: "$argon2id$hash"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{SiteName: "north", Username: "alice"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{SiteName: "north", Username: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+site_name,\s*username,\s*password_hash\s+FROM\s+users\s+WHERE\s+site_name\s*=\s*\$1\s+AND\s+username\s*=\s*\$2$`
	rows := sqlmock.NewRows([]string{"site_name", "username", "password_hash"}).
		AddRow("north", "alice", "h")
	mock.ExpectQuery(q).WithArgs("north", "alice").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "north", "alice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Username != "alice" || got.SiteName != "north" || got.PasswordHash != "h" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WithArgs("north", "ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "north", "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListBySite(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+site_name,\s*username,\s*password_hash\s+FROM\s+users\s+WHERE\s+site_name\s*=\s*\$1\s+ORDER\s+BY\s+username$`
	rows := sqlmock.NewRows([]string{"site_name", "username", "password_hash"}).
		AddRow("north", "alice", "h1").
		AddRow("north", "bob", "h2")
	mock.ExpectQuery(q).WithArgs("north").WillReturnRows(rows)

	got, err := repo.ListBySite(context.Background(), "north")
	if err != nil {
		t.Fatalf("ListBySite error: %v", err)
	}
	if len(got) != 2 || got[0].Username != "alice" || got[1].Username != "bob" {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestListBySite_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WithArgs("north").WillReturnError(errors.New("db err"))

	_, err := repo.ListBySite(context.Background(), "north")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+site_name\s*=\s*\$1\s+AND\s+username\s*=\s*\$2$`
	mock.ExpectExec(q).WithArgs("north", "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("north", "alice").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "north", "alice"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "north", "alice"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDeleteBySite(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+site_name\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("north").WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteBySite(context.Background(), "north"); err != nil {
		t.Fatalf("DeleteBySite error: %v", err)
	}
}

package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	repository "github.com/okian/wardrobe/internal/adapters/repository"
	model "github.com/okian/wardrobe/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	interactionCols = []string{"id", "user_id", "product_id", "interaction_type", "created_at"}
	reviewCols      = []string{"id", "user_id", "product_id", "rating", "review_text", "title", "created_at", "updated_at"}
	ratingCols      = []string{"product_id", "average_rating", "total_ratings", "five_star_count", "four_star_count", "three_star_count", "two_star_count", "one_star_count", "updated_at"}
)

func newMockStore(t *testing.T) (*repository.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewPostgresStoreFromDB(db), mock
}

func TestPostgresInteractions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given a postgres store", t, func() {
		store, mock := newMockStore(t)

		Convey("When a new interaction is inserted", func() {
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interactions")).
				WithArgs(int64(1), "p1", "like").
				WillReturnRows(sqlmock.NewRows(interactionCols).AddRow(10, 1, "p1", "like", now))

			in, err := store.CreateInteraction(ctx, 1, "p1", model.InteractionLike)

			Convey("Then the returned row is used", func() {
				So(err, ShouldBeNil)
				So(in.ID, ShouldEqual, 10)
				So(in.Type, ShouldEqual, model.InteractionLike)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the interaction already exists", func() {
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interactions")).
				WithArgs(int64(1), "p1", "like").
				WillReturnRows(sqlmock.NewRows(interactionCols))
			mock.ExpectQuery(regexp.QuoteMeta("FROM interactions")).
				WithArgs(int64(1), "p1", "like").
				WillReturnRows(sqlmock.NewRows(interactionCols).AddRow(3, 1, "p1", "like", now))

			in, err := store.CreateInteraction(ctx, 1, "p1", model.InteractionLike)

			Convey("Then the existing row is returned", func() {
				So(err, ShouldBeNil)
				So(in.ID, ShouldEqual, 3)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When listing a user's likes", func() {
			mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND interaction_type = $2 ORDER BY id")).
				WithArgs(int64(1), "like").
				WillReturnRows(sqlmock.NewRows(interactionCols).
					AddRow(1, 1, "a", "like", now).
					AddRow(2, 1, "b", "like", now))

			rows, err := store.InteractionsByUserAndType(ctx, 1, model.InteractionLike)

			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[1].ProductID, ShouldEqual, "b")
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("When a like replaces a dislike", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
				WithArgs(int64(1), "p1").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM interactions")).
				WithArgs(int64(1), "p1", "dislike").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interactions")).
				WithArgs(int64(1), "p1", "like").
				WillReturnRows(sqlmock.NewRows(interactionCols).AddRow(11, 1, "p1", "like", now))
			mock.ExpectCommit()

			in, removed, err := store.ReplaceInteraction(ctx, 1, "p1", model.InteractionLike, model.InteractionDislike)

			Convey("Then both statements run in one locked transaction", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldBeTrue)
				So(in.ID, ShouldEqual, 11)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the like already exists during a replace", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM interactions")).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interactions")).
				WillReturnRows(sqlmock.NewRows(interactionCols))
			mock.ExpectQuery(regexp.QuoteMeta("FROM interactions")).
				WithArgs(int64(1), "p1", "like").
				WillReturnRows(sqlmock.NewRows(interactionCols).AddRow(4, 1, "p1", "like", now))
			mock.ExpectCommit()

			in, removed, err := store.ReplaceInteraction(ctx, 1, "p1", model.InteractionLike, model.InteractionDislike)

			Convey("Then the existing row is returned inside the transaction", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldBeFalse)
				So(in.ID, ShouldEqual, 4)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When the delete fails during a replace", func() {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM interactions")).
				WillReturnError(errors.New("deadlock detected"))
			mock.ExpectRollback()

			_, _, err := store.ReplaceInteraction(ctx, 1, "p1", model.InteractionLike, model.InteractionDislike)

			Convey("Then the transaction is rolled back", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "deadlock detected")
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When deleting an interaction", func() {
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM interactions")).
				WithArgs(int64(1), "a", "dislike").
				WillReturnResult(sqlmock.NewResult(0, 1))

			removed, err := store.DeleteInteraction(ctx, 1, "a", model.InteractionDislike)
			So(err, ShouldBeNil)
			So(removed, ShouldBeTrue)
		})

		Convey("When the query fails", func() {
			mock.ExpectQuery(regexp.QuoteMeta("FROM interactions WHERE user_id = $1 ORDER BY id")).
				WillReturnError(errors.New("connection reset"))

			_, err := store.InteractionsByUser(ctx, 1)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection reset")
		})
	})
}

func TestPostgresUsers(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	userCols := []string{"id", "username", "email", "registration_date"}

	Convey("Given a postgres store", t, func() {
		store, mock := newMockStore(t)

		Convey("When the user does not exist", func() {
			mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
				WithArgs(int64(4)).
				WillReturnRows(sqlmock.NewRows(userCols))

			_, err := store.GetUser(ctx, 4)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the username is taken", func() {
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
				WithArgs("demo", "demo@example.com").
				WillReturnError(&pq.Error{Code: "23505"})

			_, err := store.CreateUser(ctx, "demo", "demo@example.com")
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
		})

		Convey("When ensuring a missing user", func() {
			mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
				WithArgs("demo").
				WillReturnRows(sqlmock.NewRows(userCols))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
				WithArgs("demo", "demo@example.com").
				WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "demo", "demo@example.com", now))

			u, err := store.EnsureUser(ctx, "demo", "demo@example.com")
			So(err, ShouldBeNil)
			So(u.ID, ShouldEqual, 1)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestPostgresReviews(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	Convey("Given a postgres store", t, func() {
		store, mock := newMockStore(t)

		Convey("When a first review is created", func() {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT id, rating FROM reviews")).
				WithArgs(int64(1), "p").
				WillReturnRows(sqlmock.NewRows([]string{"id", "rating"}))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reviews")).
				WillReturnRows(sqlmock.NewRows(reviewCols).AddRow(5, 1, "p", 4, nil, "Nice", now, now))
			mock.ExpectQuery(regexp.QuoteMeta("FROM product_ratings WHERE product_id = $1 FOR UPDATE")).
				WithArgs("p").
				WillReturnRows(sqlmock.NewRows(ratingCols))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_ratings")).
				WithArgs("p", 4.0, 1, 0, 1, 0, 0, 0, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			r, err := store.CreateReview(ctx, model.Review{UserID: 1, ProductID: "p", Rating: 4, Title: strPtr("Nice")})

			Convey("Then the review and summary are written in one transaction", func() {
				So(err, ShouldBeNil)
				So(r.ID, ShouldEqual, 5)
				So(r.ReviewText, ShouldBeNil)
				So(*r.Title, ShouldEqual, "Nice")
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When deleting a missing review", func() {
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM reviews")).
				WithArgs(int64(9)).
				WillReturnRows(sqlmock.NewRows([]string{"product_id", "rating"}))
			mock.ExpectRollback()

			err := store.DeleteReview(ctx, 9)

			Convey("Then the transaction rolls back with not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(mock.ExpectationsWereMet(), ShouldBeNil)
			})
		})

		Convey("When reading a rating summary", func() {
			mock.ExpectQuery(regexp.QuoteMeta("FROM product_ratings WHERE product_id = $1")).
				WithArgs("p").
				WillReturnRows(sqlmock.NewRows(ratingCols).AddRow("p", "4.50", 2, 1, 1, 0, 0, 0, now))

			pr, err := store.ProductRating(ctx, "p")
			So(err, ShouldBeNil)
			So(pr.AverageRating, ShouldEqual, 4.5)
			So(pr.TotalRatings, ShouldEqual, 2)
		})

		Convey("When the rating is invalid", func() {
			_, err := store.CreateReview(ctx, model.Review{UserID: 1, ProductID: "p", Rating: 6})
			So(err, ShouldEqual, model.ErrInvalidRating)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})
	})
}

func TestPostgresMigrate(t *testing.T) {
	Convey("Given a postgres store", t, func() {
		store, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		So(store.Migrate(context.Background()), ShouldBeNil)
		So(mock.ExpectationsWereMet(), ShouldBeNil)
	})
}

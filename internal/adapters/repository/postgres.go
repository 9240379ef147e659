package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/pkg/logger"
)

//go:embed schema.sql
var schema string

// pgUniqueViolation is the SQLSTATE for unique constraint failures.
const pgUniqueViolation = "23505"

const (
	interactionColumns = `id, user_id, product_id, interaction_type, created_at`
	reviewColumns      = `id, user_id, product_id, rating, review_text, title, created_at, updated_at`
	ratingColumns      = `product_id, average_rating, total_ratings, five_star_count, four_star_count, three_star_count, two_star_count, one_star_count, updated_at`
)

// PostgresStore persists everything in PostgreSQL through lib/pq.
type PostgresStore struct {
	settings
	db *sql.DB
}

// NewPostgresStore opens a connection pool for dsn. It does not dial.
func NewPostgresStore(dsn string, opts ...Option) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	s := NewPostgresStoreFromDB(db, opts...)
	db.SetMaxOpenConns(s.maxConns)
	db.SetMaxIdleConns(s.maxConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing pool.
func NewPostgresStoreFromDB(db *sql.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{settings: defaultSettings(), db: db}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

// Ping tests the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates missing tables and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	s.log.Info(ctx, "postgres schema ready")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (model.Interaction, error) {
	var in model.Interaction
	var kind string
	if err := row.Scan(&in.ID, &in.UserID, &in.ProductID, &kind, &in.CreatedAt); err != nil {
		return model.Interaction{}, err
	}
	in.Type = model.InteractionType(kind)
	return in, nil
}

// CreateInteraction inserts the triple unless it already exists.
func (s *PostgresStore) CreateInteraction(ctx context.Context, userID int64, productID string, t model.InteractionType) (model.Interaction, error) {
	defer observe("create_interaction", time.Now())
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO interactions (user_id, product_id, interaction_type) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id, interaction_type) DO NOTHING
		 RETURNING `+interactionColumns,
		userID, productID, string(t))
	in, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s.GetInteraction(ctx, userID, productID, t)
	}
	if err != nil {
		return model.Interaction{}, fmt.Errorf("insert interaction: %w", err)
	}
	return in, nil
}

// ReplaceInteraction deletes the opposite row and inserts t in one
// transaction. A transaction-scoped advisory lock on (user, product)
// serialises concurrent replacements, which READ COMMITTED alone does not.
func (s *PostgresStore) ReplaceInteraction(ctx context.Context, userID int64, productID string, t, opposite model.InteractionType) (model.Interaction, bool, error) {
	defer observe("replace_interaction", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Interaction{}, false, fmt.Errorf("begin replace interaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2))`,
		userID, productID); err != nil {
		return model.Interaction{}, false, fmt.Errorf("lock interaction: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM interactions WHERE user_id = $1 AND product_id = $2 AND interaction_type = $3`,
		userID, productID, string(opposite))
	if err != nil {
		return model.Interaction{}, false, fmt.Errorf("delete interaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Interaction{}, false, fmt.Errorf("delete interaction: %w", err)
	}

	in, err := scanInteraction(tx.QueryRowContext(ctx,
		`INSERT INTO interactions (user_id, product_id, interaction_type) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id, interaction_type) DO NOTHING
		 RETURNING `+interactionColumns,
		userID, productID, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		in, err = scanInteraction(tx.QueryRowContext(ctx,
			`SELECT `+interactionColumns+` FROM interactions
			 WHERE user_id = $1 AND product_id = $2 AND interaction_type = $3`,
			userID, productID, string(t)))
	}
	if err != nil {
		return model.Interaction{}, false, fmt.Errorf("insert interaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Interaction{}, false, fmt.Errorf("commit replace interaction: %w", err)
	}
	return in, n > 0, nil
}

// GetInteraction looks up one triple.
func (s *PostgresStore) GetInteraction(ctx context.Context, userID int64, productID string, t model.InteractionType) (model.Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE user_id = $1 AND product_id = $2 AND interaction_type = $3`,
		userID, productID, string(t))
	in, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Interaction{}, fmt.Errorf("interaction %d/%s/%s: %w", userID, productID, t, ErrNotFound)
	}
	if err != nil {
		return model.Interaction{}, fmt.Errorf("get interaction: %w", err)
	}
	return in, nil
}

// DeleteInteraction removes one triple.
func (s *PostgresStore) DeleteInteraction(ctx context.Context, userID int64, productID string, t model.InteractionType) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM interactions WHERE user_id = $1 AND product_id = $2 AND interaction_type = $3`,
		userID, productID, string(t))
	if err != nil {
		return false, fmt.Errorf("delete interaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete interaction: %w", err)
	}
	return n > 0, nil
}

// InteractionsByUserAndType returns the user's rows of one type.
func (s *PostgresStore) InteractionsByUserAndType(ctx context.Context, userID int64, t model.InteractionType) ([]model.Interaction, error) {
	defer observe("interactions_by_type", time.Now())
	return s.queryInteractions(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE user_id = $1 AND interaction_type = $2 ORDER BY id`,
		userID, string(t))
}

// InteractionsByUser returns all of the user's rows.
func (s *PostgresStore) InteractionsByUser(ctx context.Context, userID int64) ([]model.Interaction, error) {
	defer observe("interactions_by_user", time.Now())
	return s.queryInteractions(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE user_id = $1 ORDER BY id`,
		userID)
}

func (s *PostgresStore) queryInteractions(ctx context.Context, query string, args ...any) ([]model.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Interaction, 0)
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.RegistrationDate)
	return u, err
}

// GetUser looks up a user by id.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, registration_date FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername looks up a user by name.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, registration_date FROM users WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user.
func (s *PostgresStore) CreateUser(ctx context.Context, username, email string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email) VALUES ($1, $2)
		 RETURNING id, username, email, registration_date`, username, email))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return model.User{}, fmt.Errorf("user %q: %w", username, ErrConflict)
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureUser returns or creates the named user. A concurrent creator wins the race.
func (s *PostgresStore) EnsureUser(ctx context.Context, username, email string) (model.User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return u, err
	}
	u, err = s.CreateUser(ctx, username, email)
	if errors.Is(err, ErrConflict) {
		return s.GetUserByUsername(ctx, username)
	}
	return u, err
}

func scanReview(row rowScanner) (model.Review, error) {
	var r model.Review
	var text, title sql.NullString
	if err := row.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &text, &title, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return model.Review{}, err
	}
	if text.Valid {
		r.ReviewText = &text.String
	}
	if title.Valid {
		r.Title = &title.String
	}
	return r, nil
}

// CreateReview upserts the user's review and adjusts the rating summary in one transaction.
func (s *PostgresStore) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
	defer observe("create_review", time.Now())
	if err := model.ValidateRating(r.Rating); err != nil {
		return model.Review{}, err
	}
	var out model.Review
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		var old int
		err := tx.QueryRowContext(ctx,
			`SELECT id, rating FROM reviews WHERE user_id = $1 AND product_id = $2 FOR UPDATE`,
			r.UserID, r.ProductID).Scan(&id, &old)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out, err = scanReview(tx.QueryRowContext(ctx,
				`INSERT INTO reviews (user_id, product_id, rating, review_text, title)
				 VALUES ($1, $2, $3, $4, $5) RETURNING `+reviewColumns,
				r.UserID, r.ProductID, r.Rating, r.ReviewText, r.Title))
		case err == nil:
			out, err = scanReview(tx.QueryRowContext(ctx,
				`UPDATE reviews SET rating = $2, review_text = $3, title = $4, updated_at = now()
				 WHERE id = $1 RETURNING `+reviewColumns,
				id, r.Rating, r.ReviewText, r.Title))
		}
		if err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		return s.applyRating(ctx, tx, r.ProductID, old, r.Rating)
	})
	return out, err
}

// GetReview looks up a review by id.
func (s *PostgresStore) GetReview(ctx context.Context, id int64) (model.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, fmt.Errorf("review %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Review{}, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

// ReviewsByProduct returns a product's reviews, newest first.
func (s *PostgresStore) ReviewsByProduct(ctx context.Context, productID string) ([]model.Review, error) {
	defer observe("reviews_by_product", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1 ORDER BY created_at DESC, id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

// UpdateReview applies the set fields of upd.
func (s *PostgresStore) UpdateReview(ctx context.Context, id int64, upd model.ReviewUpdate) (model.Review, error) {
	if upd.Rating != nil {
		if err := model.ValidateRating(*upd.Rating); err != nil {
			return model.Review{}, err
		}
	}
	var out model.Review
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := scanReview(tx.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("review %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get review: %w", err)
		}
		next := cur
		if upd.Rating != nil {
			next.Rating = *upd.Rating
		}
		if upd.ReviewText != nil {
			next.ReviewText = upd.ReviewText
		}
		if upd.Title != nil {
			next.Title = upd.Title
		}
		out, err = scanReview(tx.QueryRowContext(ctx,
			`UPDATE reviews SET rating = $2, review_text = $3, title = $4, updated_at = now()
			 WHERE id = $1 RETURNING `+reviewColumns,
			id, next.Rating, next.ReviewText, next.Title))
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		if next.Rating == cur.Rating {
			return nil
		}
		return s.applyRating(ctx, tx, cur.ProductID, cur.Rating, next.Rating)
	})
	return out, err
}

// DeleteReview removes a review and its rating contribution.
func (s *PostgresStore) DeleteReview(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var productID string
		var rating int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM reviews WHERE id = $1 RETURNING product_id, rating`, id).Scan(&productID, &rating)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("review %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return s.applyRating(ctx, tx, productID, rating, 0)
	})
}

func scanRating(row rowScanner) (model.ProductRating, error) {
	var pr model.ProductRating
	err := row.Scan(&pr.ProductID, &pr.AverageRating, &pr.TotalRatings,
		&pr.FiveStarCount, &pr.FourStarCount, &pr.ThreeStarCount, &pr.TwoStarCount, &pr.OneStarCount, &pr.UpdatedAt)
	return pr, err
}

// ProductRating returns the rating summary of a product.
func (s *PostgresStore) ProductRating(ctx context.Context, productID string) (model.ProductRating, error) {
	pr, err := scanRating(s.db.QueryRowContext(ctx,
		`SELECT `+ratingColumns+` FROM product_ratings WHERE product_id = $1`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProductRating{}, fmt.Errorf("rating %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return model.ProductRating{}, fmt.Errorf("get rating: %w", err)
	}
	return pr, nil
}

func (s *PostgresStore) applyRating(ctx context.Context, tx *sql.Tx, productID string, oldRating, newRating int) error {
	pr, err := scanRating(tx.QueryRowContext(ctx,
		`SELECT `+ratingColumns+` FROM product_ratings WHERE product_id = $1 FOR UPDATE`, productID))
	if errors.Is(err, sql.ErrNoRows) {
		pr = model.ProductRating{ProductID: productID}
	} else if err != nil {
		return fmt.Errorf("lock rating: %w", err)
	}
	pr.Apply(oldRating, newRating)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO product_ratings (`+ratingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (product_id) DO UPDATE SET
		   average_rating = EXCLUDED.average_rating,
		   total_ratings = EXCLUDED.total_ratings,
		   five_star_count = EXCLUDED.five_star_count,
		   four_star_count = EXCLUDED.four_star_count,
		   three_star_count = EXCLUDED.three_star_count,
		   two_star_count = EXCLUDED.two_star_count,
		   one_star_count = EXCLUDED.one_star_count,
		   updated_at = EXCLUDED.updated_at`,
		pr.ProductID, pr.AverageRating, pr.TotalRatings,
		pr.FiveStarCount, pr.FourStarCount, pr.ThreeStarCount, pr.TwoStarCount, pr.OneStarCount, s.now())
	if err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Warn(ctx, "rollback failed", logger.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

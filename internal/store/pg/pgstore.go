// Package pg implements the marketplace persistence contracts on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"servicosauto.com.br/internal/ids"
	"servicosauto.com.br/internal/marketplace"
)

// Store bundles the per-entity stores over one connection pool.
type Store struct {
	db *sql.DB
}

var (
	_ marketplace.UserStore     = (*UserStore)(nil)
	_ marketplace.ProviderStore = (*ProviderStore)(nil)
	_ marketplace.ListingStore  = (*ListingStore)(nil)
	_ marketplace.ImageStore    = (*ImageStore)(nil)
)

// Open connects to PostgreSQL with pool defaults tuned for the API.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool (used by tests with sqlmock).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() *UserStore         { return &UserStore{db: s.db} }
func (s *Store) Providers() *ProviderStore { return &ProviderStore{db: s.db} }
func (s *Store) Listings() *ListingStore   { return &ListingStore{db: s.db} }
func (s *Store) Images() *ImageStore       { return &ImageStore{db: s.db} }

// User store ---------------------------------------------------------------

type UserStore struct{ db *sql.DB }

const userColumns = `id, nome, email, cpf, senha_hash, roles, created_at, updated_at, deleted_at`

func (s *UserStore) Create(ctx context.Context, u *marketplace.User) error {
	roles, _ := json.Marshal(u.Roles)
	return s.db.QueryRowContext(ctx,
		`insert into usuarios(nome, email, cpf, senha_hash, roles, created_at)
		 values($1,$2,$3,$4,$5,$6) returning id`,
		u.Nome, u.Email, u.CPF, u.SenhaHash, roles, u.CreatedAt,
	).Scan(&u.ID)
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*marketplace.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from usuarios where id=$1`, id)
	return scanUser(row)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*marketplace.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from usuarios where email=$1`, email)
	return scanUser(row)
}

func (s *UserStore) FindByCPF(ctx context.Context, cpf string) (*marketplace.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from usuarios where cpf=$1`, cpf)
	return scanUser(row)
}

func (s *UserStore) List(ctx context.Context) ([]*marketplace.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from usuarios order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*marketplace.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserStore) Update(ctx context.Context, u *marketplace.User) error {
	roles, _ := json.Marshal(u.Roles)
	res, err := s.db.ExecContext(ctx,
		`update usuarios set nome=$2, email=$3, cpf=$4, senha_hash=$5, roles=$6, updated_at=$7, deleted_at=$8
		 where id=$1`,
		u.ID, u.Nome, u.Email, u.CPF, u.SenhaHash, roles, nullTime(u.UpdatedAt), u.DeletedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Provider store -----------------------------------------------------------

type ProviderStore struct{ db *sql.DB }

const providerColumns = `id, nome, email, cpf, cnpj, senha_hash, roles, created_at, updated_at, deleted_at`

func (s *ProviderStore) Create(ctx context.Context, p *marketplace.Provider) error {
	roles, _ := json.Marshal(p.Roles)
	return s.db.QueryRowContext(ctx,
		`insert into prestadores(nome, email, cpf, cnpj, senha_hash, roles, created_at)
		 values($1,$2,$3,$4,$5,$6,$7) returning id`,
		p.Nome, p.Email, nullString(p.CPF), nullString(p.CNPJ), p.SenhaHash, roles, p.CreatedAt,
	).Scan(&p.ID)
}

func (s *ProviderStore) FindByID(ctx context.Context, id int64) (*marketplace.Provider, error) {
	row := s.db.QueryRowContext(ctx, `select `+providerColumns+` from prestadores where id=$1`, id)
	return scanProvider(row)
}

func (s *ProviderStore) FindByEmail(ctx context.Context, email string) (*marketplace.Provider, error) {
	row := s.db.QueryRowContext(ctx, `select `+providerColumns+` from prestadores where email=$1`, email)
	return scanProvider(row)
}

func (s *ProviderStore) List(ctx context.Context) ([]*marketplace.Provider, error) {
	rows, err := s.db.QueryContext(ctx, `select `+providerColumns+` from prestadores order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*marketplace.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (s *ProviderStore) Update(ctx context.Context, p *marketplace.Provider) error {
	roles, _ := json.Marshal(p.Roles)
	res, err := s.db.ExecContext(ctx,
		`update prestadores set nome=$2, email=$3, cpf=$4, cnpj=$5, senha_hash=$6, roles=$7, updated_at=$8, deleted_at=$9
		 where id=$1`,
		p.ID, p.Nome, p.Email, nullString(p.CPF), nullString(p.CNPJ), p.SenhaHash, roles, nullTime(p.UpdatedAt), p.DeletedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Listing store ------------------------------------------------------------

type ListingStore struct{ db *sql.DB }

const listingColumns = `id, titulo, descricao, prestador_id, created_at, updated_at, deleted_at`

func (s *ListingStore) Create(ctx context.Context, l *marketplace.Listing) error {
	return s.db.QueryRowContext(ctx,
		`insert into anuncios(titulo, descricao, prestador_id, created_at)
		 values($1,$2,$3,$4) returning id`,
		l.Titulo, l.Descricao, l.ProviderID, l.CreatedAt,
	).Scan(&l.ID)
}

func (s *ListingStore) FindByID(ctx context.Context, id int64) (*marketplace.Listing, error) {
	row := s.db.QueryRowContext(ctx, `select `+listingColumns+` from anuncios where id=$1`, id)
	return scanListing(row)
}

func (s *ListingStore) List(ctx context.Context) ([]*marketplace.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `select `+listingColumns+` from anuncios order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*marketplace.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *ListingStore) Update(ctx context.Context, l *marketplace.Listing) error {
	res, err := s.db.ExecContext(ctx,
		`update anuncios set titulo=$2, descricao=$3, updated_at=$4, deleted_at=$5 where id=$1`,
		l.ID, l.Titulo, l.Descricao, nullTime(l.UpdatedAt), l.DeletedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Image store --------------------------------------------------------------

type ImageStore struct{ db *sql.DB }

func (s *ImageStore) Create(ctx context.Context, img *marketplace.Image) error {
	if img.ID == "" {
		img.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into images(id, url, remote_id, deletehash, mime_type, uploaded_at, usuario_id, prestador_id, anuncio_id)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		img.ID, img.URL, img.RemoteID, img.DeleteHash, img.MIMEType, img.UploadedAt,
		img.UserID, img.ProviderID, img.ListingID,
	)
	return err
}

func (s *ImageStore) ListByOwner(ctx context.Context, owner marketplace.Image) ([]*marketplace.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, url, remote_id, deletehash, mime_type, uploaded_at, usuario_id, prestador_id, anuncio_id
		 from images
		 where ($1::bigint is null or usuario_id=$1)
		   and ($2::bigint is null or prestador_id=$2)
		   and ($3::bigint is null or anuncio_id=$3)
		 order by uploaded_at`,
		owner.UserID, owner.ProviderID, owner.ListingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*marketplace.Image
	for rows.Next() {
		var img marketplace.Image
		if err := rows.Scan(&img.ID, &img.URL, &img.RemoteID, &img.DeleteHash, &img.MIMEType,
			&img.UploadedAt, &img.UserID, &img.ProviderID, &img.ListingID); err != nil {
			return nil, err
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

// Helpers ------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*marketplace.User, error) {
	var (
		u         marketplace.User
		roles     []byte
		updatedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.CPF, &u.SenhaHash, &roles, &u.CreatedAt, &updatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, marketplace.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(roles, &u.Roles)
	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time
	}
	return &u, nil
}

func scanProvider(row rowScanner) (*marketplace.Provider, error) {
	var (
		p         marketplace.Provider
		roles     []byte
		cpf, cnpj sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Nome, &p.Email, &cpf, &cnpj, &p.SenhaHash, &roles, &p.CreatedAt, &updatedAt, &p.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, marketplace.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(roles, &p.Roles)
	p.CPF = cpf.String
	p.CNPJ = cnpj.String
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

func scanListing(row rowScanner) (*marketplace.Listing, error) {
	var (
		l         marketplace.Listing
		updatedAt sql.NullTime
	)
	err := row.Scan(&l.ID, &l.Titulo, &l.Descricao, &l.ProviderID, &l.CreatedAt, &updatedAt, &l.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, marketplace.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		l.UpdatedAt = updatedAt.Time
	}
	return &l, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return marketplace.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

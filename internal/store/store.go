package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/paketsoal/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a package does not exist.
var ErrNotFound = errors.New("package not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS packages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS package_tags (
		package_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (package_id, tag_id),
		FOREIGN KEY (package_id) REFERENCES packages(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		package_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		question TEXT NOT NULL DEFAULT '',
		answer TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (package_id) REFERENCES packages(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_questions_package ON questions(package_id, position);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SavePackage stores p and returns its ID. A package with ID 0 is inserted;
// otherwise the package with that ID is created or fully replaced.
// Tag names are upserted by tag ID.
func (s *Store) SavePackage(p model.Package) (int64, error) {
	id := p.ID
	p = model.NewPackage(p.Name, p.Tags, p.Questions)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if id == 0 {
		res, err := tx.Exec(`INSERT INTO packages (name, created_at) VALUES (?, ?)`, p.Name, time.Now())
		if err != nil {
			return 0, fmt.Errorf("insert package: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	} else {
		_, err := tx.Exec(
			`INSERT INTO packages (id, name, created_at) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			id, p.Name, time.Now(),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert package %d: %w", id, err)
		}
		if _, err := tx.Exec(`DELETE FROM package_tags WHERE package_id = ?`, id); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM questions WHERE package_id = ?`, id); err != nil {
			return 0, err
		}
	}

	for i, t := range p.Tags {
		_, err := tx.Exec(
			`INSERT INTO tags (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			t.ID, t.Name,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert tag %d: %w", t.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO package_tags (package_id, tag_id, position) VALUES (?, ?, ?)`,
			id, t.ID, i,
		)
		if err != nil {
			return 0, fmt.Errorf("link tag %d: %w", t.ID, err)
		}
	}

	for i, qa := range p.Questions {
		_, err := tx.Exec(
			`INSERT INTO questions (package_id, position, question, answer) VALUES (?, ?, ?, ?)`,
			id, i, qa.Question, qa.Answer,
		)
		if err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}

	return id, tx.Commit()
}

// GetPackage returns a package with tags and questions in stored order.
func (s *Store) GetPackage(id int64) (model.Package, error) {
	p := model.Package{ID: id}
	err := s.db.QueryRow(`SELECT name FROM packages WHERE id = ?`, id).Scan(&p.Name)
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("package %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return p, err
	}

	tags, err := s.packageTags(id)
	if err != nil {
		return p, err
	}
	questions, err := s.packageQuestions(id)
	if err != nil {
		return p, err
	}

	pkg := model.NewPackage(p.Name, tags, questions)
	pkg.ID = id
	return pkg, nil
}

func (s *Store) packageTags(packageID int64) ([]model.Tag, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.name FROM package_tags pt
		 JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.package_id = ? ORDER BY pt.position`, packageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) packageQuestions(packageID int64) ([]model.QuestionAnswer, error) {
	rows, err := s.db.Query(
		`SELECT question, answer FROM questions WHERE package_id = ? ORDER BY position`, packageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.QuestionAnswer
	for rows.Next() {
		var qa model.QuestionAnswer
		if err := rows.Scan(&qa.Question, &qa.Answer); err != nil {
			return nil, err
		}
		questions = append(questions, qa)
	}
	return questions, rows.Err()
}

// ListPackages returns all packages, newest first.
func (s *Store) ListPackages() ([]model.PackageSummary, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.name, COUNT(q.id) FROM packages p
		 LEFT JOIN questions q ON q.package_id = p.id
		 GROUP BY p.id ORDER BY p.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PackageSummary
	for rows.Next() {
		var ps model.PackageSummary
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

// DeletePackage removes a package with its questions and tag links.
func (s *Store) DeletePackage(id int64) error {
	res, err := s.db.Exec(`DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("package %d: %w", id, ErrNotFound)
	}
	return nil
}

// PackageCount returns the number of stored packages.
func (s *Store) PackageCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM packages`).Scan(&count)
	return count, err
}

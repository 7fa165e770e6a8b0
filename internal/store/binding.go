package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/gestureos/internal/gesture"
)

// BindingKind selects how a binding is registered with the dispatch engine.
type BindingKind string

const (
	// BindingPress fires through priority dispatch on every matching gesture.
	BindingPress BindingKind = "press"
	// BindingHold fires when the gesture fills HoldCount window slots.
	BindingHold BindingKind = "hold"
)

// Valid reports whether k is a known kind.
func (k BindingKind) Valid() bool {
	return k == BindingPress || k == BindingHold
}

// Binding maps a gesture identity to a plugin action.
type Binding struct {
	ID         string
	Hand       gesture.Hand
	Sign       gesture.Sign
	Kind       BindingKind
	Priority   int
	HoldCount  int
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

// Identity returns the gesture the binding reacts to.
func (b *Binding) Identity() gesture.Identity {
	return gesture.New(b.Hand, b.Sign)
}

// Validate checks the fields the database cannot.
func (b *Binding) Validate() error {
	id := b.Identity()
	if id.IsAny() || !id.Valid() {
		return fmt.Errorf("invalid gesture %q", id.Key())
	}
	if !b.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", b.Kind)
	}
	if b.Kind == BindingHold && b.HoldCount < 1 {
		return errors.New("hold_count must be at least 1 for hold bindings")
	}
	if b.PluginName == "" || b.ActionName == "" {
		return errors.New("plugin_name and action_name are required")
	}
	return nil
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, hand, sign, kind, priority, hold_count, plugin_name, action_name, config, enabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(row rowScanner) (*Binding, error) {
	b := &Binding{}
	var hand, sign, kind, config string
	var enabled int

	err := row.Scan(&b.ID, &hand, &sign, &kind, &b.Priority, &b.HoldCount,
		&b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	if b.Hand, err = gesture.ParseHand(hand); err != nil {
		return nil, fmt.Errorf("binding %s: %w", b.ID, err)
	}
	if b.Sign, err = gesture.ParseSign(sign); err != nil {
		return nil, fmt.Errorf("binding %s: %w", b.ID, err)
	}
	b.Kind = BindingKind(kind)
	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

func configOrEmpty(c json.RawMessage) string {
	if len(c) == 0 {
		return "{}"
	}
	return string(c)
}

// Create inserts a new binding. A press binding that reuses an occupied
// priority for its gesture fails with ErrConflict.
func (r *BindingRepository) Create(b *Binding) error {
	b.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Hand.String(), b.Sign.String(), string(b.Kind), b.Priority, b.HoldCount,
		b.PluginName, b.ActionName, configOrEmpty(b.Config), b.Enabled, b.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s priority %d", ErrConflict, b.Identity().Key(), b.Priority)
	}
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(
		`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings, oldest first.
func (r *BindingRepository) List() ([]*Binding, error) {
	return r.query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY created_at, id`)
}

// ListEnabled retrieves the enabled bindings, oldest first.
func (r *BindingRepository) ListEnabled() ([]*Binding, error) {
	return r.query(`SELECT ` + bindingColumns + ` FROM bindings WHERE enabled = 1 ORDER BY created_at, id`)
}

func (r *BindingRepository) query(q string, args ...any) ([]*Binding, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	result, err := r.db.Exec(
		`UPDATE bindings SET hand = ?, sign = ?, kind = ?, priority = ?, hold_count = ?,
		 plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.Hand.String(), b.Sign.String(), string(b.Kind), b.Priority, b.HoldCount,
		b.PluginName, b.ActionName, configOrEmpty(b.Config), b.Enabled, b.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s priority %d", ErrConflict, b.Identity().Key(), b.Priority)
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

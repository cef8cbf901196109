package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"floorlink/domain"
)

// Participant is the directory entry for one factory-floor participant.
// PINHash is an argon2id hash; the cleartext PIN never reaches storage.
type Participant struct {
	ID          domain.ParticipantID
	DisplayName string
	Roles       []string
	PINHash     string
	CreatedAt   time.Time
}

// ParticipantDirectory resolves ids to names and roles, backed by Badger.
type ParticipantDirectory struct {
	db *badger.DB
}

func NewParticipantDirectory(db *badger.DB) *ParticipantDirectory {
	return &ParticipantDirectory{db: db}
}

func (d *ParticipantDirectory) Register(p Participant) error {
	if p.ID.IsZero() {
		return fmt.Errorf("participant without id")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal participant %s: %w", p.ID, err)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(participantKey(p.ID), body)
	})
}

func (d *ParticipantDirectory) Get(id domain.ParticipantID) (Participant, error) {
	var p Participant
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(participantKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &p)
		})
	})
	if err != nil {
		return Participant{}, fmt.Errorf("participant %s: %w", id, err)
	}
	return p, nil
}

// GetDisplayName implements contract.Directory.
func (d *ParticipantDirectory) GetDisplayName(_ context.Context, id domain.ParticipantID) (string, error) {
	p, err := d.Get(id)
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}

// GetRoles implements contract.Directory.
func (d *ParticipantDirectory) GetRoles(_ context.Context, id domain.ParticipantID) ([]string, error) {
	p, err := d.Get(id)
	if err != nil {
		return nil, err
	}
	return p.Roles, nil
}

func participantKey(id domain.ParticipantID) []byte {
	return []byte("participant:" + string(id))
}

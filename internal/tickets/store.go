// Package tickets is the flat-file ticket ledger: a CSV file of minted
// tickets with append, filter, and remove operations. The marketplace
// reads it to seed listings; it never writes listings here.
package tickets

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stagepass-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var header = []string{"id", "seatId", "imageUrl", "txHash", "venue", "price", "date", "walletAddress", "status", "mintedAt"}

// Store is a mutex-guarded CSV-backed ticket ledger. Appends add one row;
// removal rewrites the whole file, as the original ledger did.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore opens the ledger at path, creating the file (and its
// directory) with a header row when missing.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ticket ledger dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("ticket ledger create: %w", err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("ticket ledger header: %w", err)
		}
		w.Flush()
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("ticket ledger close: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Append records a new ticket. A ticket id may only appear once.
func (s *Store) Append(t domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ID == t.ID {
			return domain.ErrDuplicateTicket
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ticket ledger open: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(toRow(t)); err != nil {
		return fmt.Errorf("ticket ledger append: %w", err)
	}
	w.Flush()
	return w.Error()
}

// List returns tickets, filtered by status when status is non-empty, in
// ledger order.
func (s *Store) List(status string) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	filtered := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// Get returns the ticket with the given id.
func (s *Store) Get(id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

// Remove deletes a ticket by id, rewriting the file. Removing an unknown
// id is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	kept := make([]domain.Ticket, 0, len(all))
	for _, t := range all {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(all) {
		return nil
	}
	return s.writeAll(kept)
}

func (s *Store) readAll() ([]domain.Ticket, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("ticket ledger open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ticket ledger read: %w", err)
	}

	tickets := make([]domain.Ticket, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		t, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("ticket ledger row %d: %w", i, err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (s *Store) writeAll(tickets []domain.Ticket) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("ticket ledger rewrite: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("ticket ledger rewrite: %w", err)
	}
	for _, t := range tickets {
		if err := w.Write(toRow(t)); err != nil {
			f.Close()
			return fmt.Errorf("ticket ledger rewrite: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("ticket ledger rewrite: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ticket ledger rewrite: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func toRow(t domain.Ticket) []string {
	return []string{
		t.ID, t.SeatID, t.ImageURL, t.TxHash, t.Venue,
		t.Price.String(), t.Date, t.WalletAddress, t.Status,
		t.MintedAt.UTC().Format(time.RFC3339),
	}
}

func fromRow(row []string) (domain.Ticket, error) {
	price, err := decimal.NewFromString(row[5])
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%w: price %q", domain.ErrInvalidAmount, row[5])
	}
	mintedAt, err := time.Parse(time.RFC3339, row[9])
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("invalid mintedAt %q", row[9])
	}
	return domain.Ticket{
		ID:            row[0],
		SeatID:        row[1],
		ImageURL:      row[2],
		TxHash:        row[3],
		Venue:         row[4],
		Price:         price,
		Date:          row[6],
		WalletAddress: row[7],
		Status:        row[8],
		MintedAt:      mintedAt,
	}, nil
}

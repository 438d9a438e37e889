// Package journal keeps an append-only local record of every mutation the
// terminal pushed to the remote service: sales, replenishments, price
// mutations. Entries are zstd-compressed JSON frames so a busy terminal can
// keep months of history in a few megabytes.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"abasto/internal/core/id"
)

// Entry is one journaled mutation.
type Entry struct {
	ID      id.ID           `json:"id"`
	At      time.Time       `json:"at"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Entry kinds.
const (
	KindSale       = "sale"
	KindQuickSell  = "quick_sell"
	KindReplenish  = "replenish"
	KindBulkPrice  = "bulk_price"
	KindItemEdit   = "item_edit"
	KindItemDelete = "item_delete"
)

// Journal is an append-only frame log. Each frame is a 4-byte big-endian
// length followed by a zstd-compressed JSON entry; frames are independent so
// a torn tail frame never corrupts earlier history.
type Journal struct {
	mu      sync.Mutex
	f       *os.File
	path    string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the journal file at path.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &Journal{f: f, path: path, encoder: enc, decoder: dec}, nil
}

// Append records one mutation. The payload is marshaled, compressed and
// flushed to disk before returning.
func (j *Journal) Append(kind string, payload any) (Entry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal journal payload: %w", err)
	}
	entry := Entry{
		ID:      id.New(),
		At:      time.Now().UTC(),
		Kind:    kind,
		Payload: raw,
	}
	buf, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	frame := j.encoder.EncodeAll(buf, make([]byte, 0, len(buf)/2))
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(frame)))

	if _, err := j.f.Write(hdr[:]); err != nil {
		return Entry{}, fmt.Errorf("write journal frame header: %w", err)
	}
	if _, err := j.f.Write(frame); err != nil {
		return Entry{}, fmt.Errorf("write journal frame: %w", err)
	}
	if err := j.f.Sync(); err != nil {
		return Entry{}, fmt.Errorf("sync journal: %w", err)
	}
	return entry, nil
}

// Replay streams every entry in append order. A truncated tail frame stops
// the replay cleanly instead of erroring; everything before it is intact.
func (j *Journal) Replay(fn func(Entry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("open journal for replay: %w", err)
	}
	defer f.Close()

	var hdr [4]byte
	for {
		if _, err := io.ReadFull(f, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("read journal frame header: %w", err)
		}
		frame := make([]byte, binary.BigEndian.Uint32(hdr[:]))
		if _, err := io.ReadFull(f, frame); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return fmt.Errorf("read journal frame: %w", err)
		}

		buf, err := j.decoder.DecodeAll(frame, nil)
		if err != nil {
			return fmt.Errorf("decompress journal frame: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(buf, &entry); err != nil {
			return fmt.Errorf("unmarshal journal entry: %w", err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.encoder.Close()
	j.decoder.Close()
	return j.f.Close()
}

package tablefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/KevoDB/ctable/pkg/common/log"
	"github.com/KevoDB/ctable/pkg/lut"
	"github.com/KevoDB/ctable/pkg/stats"
)

// Info describes the tables held in a file
type Info struct {
	Count int
	Names []string
}

// Store reads and writes one table file. Each call opens and closes the
// file; a Store carries only its path and options.
type Store struct {
	path     string
	encoding NameEncoding
	atomic   bool
	logger   log.Logger
	stats    stats.Collector
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for operation traces
func WithLogger(logger log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithStats sets a collector that receives operation counts and latencies
func WithStats(collector stats.Collector) Option {
	return func(s *Store) {
		s.stats = collector
	}
}

// WithNameEncoding sets how name records are encoded and decoded
func WithNameEncoding(enc NameEncoding) Option {
	return func(s *Store) {
		s.encoding = enc
	}
}

// WithAtomicWrites makes Write apply changes to a temporary copy and
// rename it over the file, so a crash never leaves a half-written file.
// Without it writes go directly to the file and an interrupted write may
// leave the header and name directory out of step.
func WithAtomicWrites(enabled bool) Option {
	return func(s *Store) {
		s.atomic = enabled
	}
}

// New returns a Store for the file at path. The file need not exist.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:     path,
		encoding: NameUTF8,
		logger:   log.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("file", path)
	return s
}

// Path returns the file the store operates on
func (s *Store) Path() string {
	return s.path
}

// Encoding returns the name encoding the store uses
func (s *Store) Encoding() NameEncoding {
	return s.encoding
}

// GetFileInfo returns the table count and names of the file at path
func GetFileInfo(path string) (Info, error) {
	return New(path).Info()
}

// ReadTable reads table index from the file at path
func ReadTable(path string, index int) (lut.Table, error) {
	return New(path).Read(index)
}

// WriteTable writes t named name at index in the file at path
func WriteTable(path string, index int, name string, t lut.Table) error {
	return New(path).Write(index, name, t)
}

// Info returns the table count and names. A missing or empty file holds no
// tables.
func (s *Store) Info() (Info, error) {
	start := time.Now()
	info, err := s.info()
	s.track(stats.OpInfo, start, err)
	return info, err
}

// Names returns the table names in slot order
func (s *Store) Names() ([]string, error) {
	info, err := s.Info()
	return info.Names, err
}

func (s *Store) info() (Info, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{Names: []string{}}, nil
		}
		return Info{}, ioError("open", s.path, err)
	}
	defer f.Close()

	return s.readInfo(f)
}

// readInfo reads the header and name directory from an open file
func (s *Store) readInfo(f *os.File) (Info, error) {
	fi, err := f.Stat()
	if err != nil {
		return Info{}, ioError("stat", s.path, err)
	}
	if fi.Size() == 0 {
		return Info{Names: []string{}}, nil
	}

	var header [HeaderSize]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		return Info{}, readError(s.path, "header", err)
	}
	n := int(header[0])

	if want := fileSize(n); fi.Size() < want {
		return Info{}, fmt.Errorf("%w: %s is %d bytes, header claims %d tables (%d bytes)",
			ErrFormat, s.path, fi.Size(), n, want)
	}

	dir := make([]byte, n*NameLen)
	if _, err := f.ReadAt(dir, slotOffset(n)); err != nil {
		return Info{}, readError(s.path, "name directory", err)
	}
	s.trackBytes(false, HeaderSize+len(dir))

	names, err := decodeDirectory(dir, s.encoding)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", s.path, err)
	}

	return Info{Count: n, Names: names}, nil
}

// Read returns the table in slot index. Valid indices are 0 through
// Count-1.
func (s *Store) Read(index int) (lut.Table, error) {
	start := time.Now()
	t, err := s.read(index)
	s.track(stats.OpRead, start, err)
	return t, err
}

func (s *Store) read(index int) (lut.Table, error) {
	info, err := s.info()
	if err != nil {
		return lut.Table{}, err
	}
	if index < 0 || index >= info.Count {
		return lut.Table{}, fmt.Errorf("%w: %d, file holds %d tables", ErrInvalidIndex, index, info.Count)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return lut.Table{}, ioError("open", s.path, err)
	}
	defer f.Close()

	var slot [SlotSize]byte
	if _, err := f.ReadAt(slot[:], slotOffset(index)); err != nil {
		return lut.Table{}, readError(s.path, fmt.Sprintf("slot %d", index), err)
	}
	s.trackBytes(false, SlotSize)

	s.logger.WithField("index", index).Debug("read table %q", info.Names[index])
	return DecodeSlot(slot[:])
}

// Write stores t under name in slot index.
//
// Writing past the last slot appends; any skipped indices become blank,
// unnamed padding slots. Writing an existing slot replaces its colors and
// name in place. The name directory is rewritten after every write and the
// file truncated to end with it.
func (s *Store) Write(index int, name string, t lut.Table) error {
	start := time.Now()
	err := s.write(index, name, t)
	s.track(stats.OpWrite, start, err)
	return err
}

func (s *Store) write(index int, name string, t lut.Table) error {
	if index < 0 || index > MaxIndex {
		return fmt.Errorf("%w: %d, must be between 0 and %d", ErrInvalidIndex, index, MaxIndex)
	}
	if _, err := EncodeName(name, s.encoding); err != nil {
		return err
	}

	info, err := s.info()
	if err != nil {
		return err
	}

	u := update{
		info:  info,
		index: index,
		name:  name,
		slot:  EncodeSlot(&t),
		enc:   s.encoding,
	}

	if s.atomic {
		err = s.writeAtomic(&u)
	} else {
		err = s.writeInPlace(&u)
	}
	if err != nil {
		return err
	}

	s.trackBytes(true, u.written)
	if s.stats != nil {
		if u.appended {
			s.stats.TrackOperation(stats.OpAppend)
			s.stats.TrackSlots(uint64(u.padding+1), uint64(u.padding))
		} else {
			s.stats.TrackOperation(stats.OpUpdate)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"index":   index,
		"tables":  u.count,
		"padding": u.padding,
	}).Debug("wrote table %q", name)
	return nil
}

func (s *Store) writeInPlace(u *update) error {
	flags := os.O_RDWR
	if u.info.Count == 0 {
		flags |= os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flags, 0644)
	if err != nil {
		return ioError("open", s.path, err)
	}

	if err := u.apply(f, s.path); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return ioError("close", s.path, err)
	}
	return nil
}

// update is one pending Write against a file whose contents are described
// by info
type update struct {
	info  Info
	index int
	name  string
	slot  [SlotSize]byte
	enc   NameEncoding

	// results
	count    int
	appended bool
	padding  int
	written  int
}

// apply performs the write against f, which must hold the contents info
// was read from (or be empty when info.Count is zero)
func (u *update) apply(f *os.File, path string) error {
	n := u.info.Count
	names := make([]string, n, n+1)
	copy(names, u.info.Names)

	var off int64
	if u.index >= n {
		header := []byte{byte(u.index + 1)}
		if _, err := f.WriteAt(header, 0); err != nil {
			return ioError("write", path, err)
		}
		u.written += len(header)

		off = slotOffset(n)
		if pad := u.index - n; pad > 0 {
			names = append(names, make([]string, pad)...)
			blank := blankSlots(pad)
			if _, err := f.WriteAt(blank, off); err != nil {
				return ioError("write", path, err)
			}
			off += int64(len(blank))
			u.written += len(blank)
			u.padding = pad
		}

		names = append(names, u.name)
		n = u.index + 1
		u.appended = true
	} else {
		off = slotOffset(u.index)
		names[u.index] = u.name
	}

	if _, err := f.WriteAt(u.slot[:], off); err != nil {
		return ioError("write", path, err)
	}
	u.written += SlotSize

	dir, err := encodeDirectory(names, u.enc)
	if err != nil {
		return err
	}
	end := slotOffset(n)
	if _, err := f.WriteAt(dir, end); err != nil {
		return ioError("write", path, err)
	}
	u.written += len(dir)

	if err := f.Truncate(end + int64(len(dir))); err != nil {
		return ioError("truncate", path, err)
	}

	u.count = n
	return nil
}

func (s *Store) track(op stats.OperationType, start time.Time, err error) {
	if s.stats == nil {
		return
	}
	s.stats.TrackOperationWithLatency(op, uint64(time.Since(start).Nanoseconds()))
	if err != nil {
		s.stats.TrackError(errorKind(err))
	}
}

func (s *Store) trackBytes(isWrite bool, n int) {
	if s.stats != nil {
		s.stats.TrackBytes(isWrite, uint64(n))
	}
}

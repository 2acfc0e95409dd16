package flashfs

import "errors"

// Error kinds. All operations fail fast; nothing is caught or retried
// internally. Wrapped variants match with errors.Is.
var (
	// ErrNotInitialized is returned when the region magic is absent.
	ErrNotInitialized = errors.New("flashfs: region not initialized")

	// ErrFileExists is returned when creating a name that already exists
	// (names compare case-insensitively).
	ErrFileExists = errors.New("flashfs: file exists")

	// ErrFileNotFound is returned when opening a missing name for read.
	ErrFileNotFound = errors.New("flashfs: file not found")

	// ErrInvalidMode is returned for open modes other than "r" and "w".
	ErrInvalidMode = errors.New("flashfs: invalid mode")

	// ErrNameTooLong is returned when a name exceeds the fixed field width.
	ErrNameTooLong = errors.New("flashfs: name too long")

	// ErrDirectoryFull is returned when a new entry would not fit in the
	// directory page.
	ErrDirectoryFull = errors.New("flashfs: directory full")

	// ErrRegionFull is returned when no content page is left to allocate.
	ErrRegionFull = errors.New("flashfs: region full")

	// ErrInsufficientSpace is returned when a write or skip would run past
	// the region end.
	ErrInsufficientSpace = errors.New("flashfs: insufficient space")

	// ErrCorruptEntry is returned when a directory entry is malformed
	// (missing EOF sentinel, or a field outside its representable range).
	ErrCorruptEntry = errors.New("flashfs: corrupt directory entry")

	// ErrWrongSeek is returned for seeks outside [0, size].
	ErrWrongSeek = errors.New("flashfs: wrong seek position")

	// ErrModeMismatch is returned for read ops on write handles and vice
	// versa.
	ErrModeMismatch = errors.New("flashfs: operation does not match handle mode")

	// ErrClosed is returned for any operation on a closed handle.
	ErrClosed = errors.New("flashfs: handle closed")
)

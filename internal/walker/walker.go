package walker

import (
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FileEntry is a file discovered during traversal.
type FileEntry struct {
	Path string
}

// Options configures directory traversal behavior.
type Options struct {
	Recursive  bool
	NoIgnore   bool // skip .gitignore processing
	Hidden     bool // include hidden files and directories
	BinaryExts bool // include files with binary extensions
}

// Walk traverses roots and sends discovered files on the returned channel.
// Without Recursive each root must be a regular file. Directories are read
// with getdents64 by runtime.NumCPU() goroutines; .gitignore files, hidden
// entries and VCS directories are honored. Both channels are closed when the
// walk is done.
func Walk(roots []string, opts Options) (<-chan FileEntry, <-chan error) {
	fileCh := make(chan FileEntry, 256)
	errCh := make(chan error, 16)

	go func() {
		defer close(fileCh)
		defer close(errCh)

		w := &treeWalker{fileCh: fileCh, errCh: errCh, opts: opts}
		w.cond = sync.NewCond(&w.mu)
		for _, root := range roots {
			var stat unix.Stat_t
			if err := unix.Stat(root, &stat); err != nil {
				errCh <- &WalkError{Path: root, Err: err}
				continue
			}
			switch stat.Mode & unix.S_IFMT {
			case unix.S_IFREG:
				fileCh <- FileEntry{Path: root}
			case unix.S_IFDIR:
				if !opts.Recursive {
					errCh <- &WalkError{Path: root, Err: errIsDir}
					continue
				}
				var layers ignoreLayers
				if !opts.NoIgnore {
					layers = layers.with(root)
				}
				w.enqueue(dirItem{path: root, ignores: layers})
			}
		}
		if w.pending == 0 {
			return
		}

		var wg sync.WaitGroup
		for range runtime.NumCPU() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.work()
			}()
		}
		wg.Wait()
	}()

	return fileCh, errCh
}

type dirItem struct {
	path    string
	ignores ignoreLayers // nil with NoIgnore
}

// treeWalker is a breadth-first work queue of directories shared by the
// walking goroutines.
type treeWalker struct {
	fileCh chan<- FileEntry
	errCh  chan<- error
	opts   Options

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []dirItem
	pending int // enqueued but not finished
}

func (w *treeWalker) enqueue(item dirItem) {
	w.mu.Lock()
	w.queue = append(w.queue, item)
	w.pending++
	w.mu.Unlock()
	w.cond.Signal()
}

// next blocks until a directory is available. It returns false once every
// directory has been processed.
func (w *treeWalker) next() (dirItem, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.queue) == 0 && w.pending > 0 {
		w.cond.Wait()
	}
	if len(w.queue) == 0 {
		return dirItem{}, false
	}
	item := w.queue[0]
	w.queue = w.queue[1:]
	return item, true
}

func (w *treeWalker) done() {
	w.mu.Lock()
	w.pending--
	if w.pending == 0 {
		w.cond.Broadcast()
	}
	w.mu.Unlock()
}

func (w *treeWalker) work() {
	buf := make([]byte, 32*1024)
	var dirents []Dirent
	for {
		item, ok := w.next()
		if !ok {
			return
		}
		dirents = w.readDir(item, buf, dirents)
		w.done()
	}
}

// readDir lists one directory and dispatches its entries. The directory fd is
// closed before subdirectories are enqueued.
func (w *treeWalker) readDir(item dirItem, buf []byte, dirents []Dirent) []Dirent {
	fd, err := unix.Open(item.path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOATIME|unix.O_CLOEXEC, 0)
	if err != nil {
		fd, err = unix.Open(item.path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err != nil {
			w.errCh <- &WalkError{Path: item.path, Err: err}
			return dirents
		}
	}

	var subdirs []dirItem
	for {
		n, err := unix.Getdents(fd, buf)
		if err != nil {
			w.errCh <- &WalkError{Path: item.path, Err: err}
			break
		}
		if n == 0 {
			break
		}
		dirents = ParseDirents(buf, n, dirents)
		for _, entry := range dirents {
			if sub, ok := w.dispatch(item, entry); ok {
				subdirs = append(subdirs, sub)
			}
		}
	}
	unix.Close(fd)

	for _, sub := range subdirs {
		w.enqueue(sub)
	}
	return dirents
}

// dispatch sends a file entry on, or returns the directory item to descend
// into.
func (w *treeWalker) dispatch(parent dirItem, entry Dirent) (dirItem, bool) {
	path := joinPath(parent.path, entry.Name)
	typ := entry.Type
	if typ == DT_LNK || typ == DT_UNKNOWN {
		var stat unix.Stat_t
		if err := unix.Stat(path, &stat); err != nil {
			if typ == DT_UNKNOWN {
				w.errCh <- &WalkError{Path: path, Err: err}
			}
			return dirItem{}, false // broken symlinks are skipped silently
		}
		switch stat.Mode & unix.S_IFMT {
		case unix.S_IFREG:
			typ = DT_REG
		case unix.S_IFDIR:
			typ = DT_DIR
		default:
			return dirItem{}, false
		}
	}

	switch typ {
	case DT_DIR:
		if skipDir(entry.Name, w.opts.Hidden) || parent.ignores.ignored(path, true) {
			return dirItem{}, false
		}
		sub := dirItem{path: path}
		if !w.opts.NoIgnore {
			sub.ignores = parent.ignores.with(path)
		}
		return sub, true
	case DT_REG:
		if !w.opts.Hidden && isHidden(entry.Name) {
			return dirItem{}, false
		}
		if !w.opts.BinaryExts && IsBinaryExtension(entry.Name) {
			return dirItem{}, false
		}
		if parent.ignores.ignored(path, false) {
			return dirItem{}, false
		}
		w.fileCh <- FileEntry{Path: path}
	}
	return dirItem{}, false
}

// joinPath concatenates a directory and entry name with a single separator
// in one allocation.
func joinPath(dirPath, name string) string {
	needsSep := len(dirPath) == 0 || dirPath[len(dirPath)-1] != '/'
	n := len(dirPath) + len(name)
	if needsSep {
		n++
	}
	buf := make([]byte, n)
	i := copy(buf, dirPath)
	if needsSep {
		buf[i] = '/'
		i++
	}
	copy(buf[i:], name)
	return unsafe.String(&buf[0], len(buf))
}

func isHidden(name string) bool { return len(name) > 0 && name[0] == '.' }

// skipDir reports whether a directory is skipped: VCS directories always,
// other hidden ones unless hidden is set.
func skipDir(name string, hidden bool) bool {
	switch name {
	case ".git", ".svn", ".hg":
		return true
	}
	return !hidden && isHidden(name)
}

// WalkError represents an error during directory traversal.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return "walk " + e.Path + ": " + e.Err.Error()
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

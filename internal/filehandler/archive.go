package filehandler

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const zipMethodZstd uint16 = 93

// ExtractFactor bounds the uncompressed size of an archive relative to the
// archive size limit. Slide images barely compress, so anything beyond this
// ratio is treated as a zip bomb.
const ExtractFactor = 4

// ExtractLimit is the uncompressed size allowed for archives of up to
// archiveBytes. A non-positive archiveBytes means no limit.
func ExtractLimit(archiveBytes int64) int64 {
	if archiveBytes <= 0 {
		return 0
	}
	return archiveBytes * ExtractFactor
}

// ErrArchiveTooLarge is returned when the uncompressed archive exceeds the limit.
var ErrArchiveTooLarge = errors.New("archive exceeds the uncompressed size limit")

// zstdDecompressor adapts a zstd decoder to archive/zip.
func zstdDecompressor(r io.Reader) io.ReadCloser {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return io.NopCloser(errReader{err})
	}
	return dec.IOReadCloser()
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// ExtractArchive unpacks the zip at zipPath into destDir.
//
// Extraction is all-or-nothing: on any error every file written so far is
// removed. Entries that would land outside destDir are rejected, as are
// symlinks. maxBytes caps the total uncompressed size (0 means no limit).
// Deflate, store and Zstandard (method 93) entries are supported.
func ExtractArchive(zipPath, destDir string, maxBytes int64) (err error) {
	log.Info().Str("archive", zipPath).Str("dest", destDir).Msg("Extracting archive")

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()
	r.RegisterDecompressor(zipMethodZstd, zstdDecompressor)

	absDest, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("failed to resolve destination: %w", err)
	}
	created, err := mkdirAllTracked(absDest)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}
		// Remove in reverse so files go before their directories.
		for i := len(created) - 1; i >= 0; i-- {
			os.Remove(created[i])
		}
		log.Warn().Err(err).Str("archive", zipPath).Int("removed", len(created)).Msg("Archive extraction rolled back")
	}()

	var total int64
	for _, f := range r.File {
		target, err := safeJoin(absDest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			dirs, err := mkdirAllTracked(target)
			created = append(created, dirs...)
			if err != nil {
				return err
			}
			continue
		}
		if f.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("archive entry %q is a symlink", f.Name)
		}

		dirs, err := mkdirAllTracked(filepath.Dir(target))
		created = append(created, dirs...)
		if err != nil {
			return err
		}

		created = append(created, target)
		n, err := extractFile(f, target, remaining(maxBytes, total))
		if err != nil {
			return err
		}
		total += n
	}

	log.Info().
		Int("entries", len(r.File)).
		Int64("bytes", total).
		Str("dest", absDest).
		Msg("Archive extracted")
	return nil
}

// remaining returns the byte budget left, or -1 when there is no limit.
func remaining(maxBytes, used int64) int64 {
	if maxBytes <= 0 {
		return -1
	}
	return maxBytes - used
}

func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open archive entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}

	var src io.Reader = rc
	if budget >= 0 {
		src = io.LimitReader(rc, budget+1)
	}
	n, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to extract %q: %w", f.Name, err)
	}
	if budget >= 0 && n > budget {
		return n, ErrArchiveTooLarge
	}
	return n, nil
}

// safeJoin joins an archive entry name onto root and rejects names that
// escape it ("../x", absolute paths).
func safeJoin(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return "", fmt.Errorf("illegal archive entry %q", name)
	}
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal archive entry %q", name)
	}
	return target, nil
}

// mkdirAllTracked is os.MkdirAll that reports which directories it created.
func mkdirAllTracked(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	// Outermost first, matching creation order.
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}

// ResolveImageDir returns the folder holding the extracted slides. Exporters
// usually zip a folder, so <root>/<archive base name> is preferred when it
// exists; otherwise the images are expected directly under root.
func ResolveImageDir(root, archiveName string) string {
	base := strings.TrimSuffix(filepath.Base(archiveName), filepath.Ext(archiveName))
	if base != "" && base != "." {
		candidate := filepath.Join(root, base)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return root
}

package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteCohort writes a balanced fixture dataset with perClass scan/annotation
// pairs per pcr class plus the CSV listing them, and returns the CSV path.
// Scan contents are unique per case so every case gets a distinct content ID.
func WriteCohort(t testing.TB, perClass int) string {
	t.Helper()

	dir := t.TempDir()
	rows := make([]string, 0, perClass*2)
	for i := 0; i < perClass*2; i++ {
		name := fmt.Sprintf("MR%02d", i)
		WriteFile(t, filepath.Join(dir, name+".nii.gz"), []byte("scan:"+name))
		WriteFile(t, filepath.Join(dir, name+"A.nii.gz"), []byte("anno:"+name))

		label := "non-pcr"
		if i%2 == 0 {
			label = "pcr"
		}
		rows = append(rows, name+","+label)
	}

	csvPath := filepath.Join(dir, "images.csv")
	WriteFile(t, csvPath, []byte(strings.Join(rows, "\n")+"\n"))
	return csvPath
}

// WriteFile writes content to path, creating parent directories as needed.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

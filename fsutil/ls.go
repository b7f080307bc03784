package fsutil

import (
	"os"
	"path/filepath"
)

// LsDirs returns the names of the directories directly inside dir.
func LsDirs(dir string) ([]string, error) {
	return list(dir, func(de os.DirEntry) (string, bool) {
		return de.Name(), de.IsDir()
	})
}

// LsNames returns all entry names directly inside dir.
func LsNames(dir string) ([]string, error) {
	return list(dir, func(de os.DirEntry) (string, bool) {
		return de.Name(), true
	})
}

// LsNamesAbs is LsNames with each name joined onto dir.
func LsNamesAbs(dir string) ([]string, error) {
	return list(dir, func(de os.DirEntry) (string, bool) {
		return filepath.Join(dir, de.Name()), true
	})
}

func list(dir string, pick func(os.DirEntry) (string, bool)) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, err
	}
	res := make([]string, 0, len(des))
	for _, de := range des {
		if de.Name() == "." || de.Name() == ".." {
			continue
		}
		if name, ok := pick(de); ok {
			res = append(res, name)
		}
	}
	return res, nil
}

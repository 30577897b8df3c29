// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

// Package downloader fetches and unpacks the training dataset archive.
package downloader

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// Download fetches url and saves it at filePath, creating the parent
// directory if needed. With showProgressBar it renders a byte-count progress
// bar on stderr.
func Download(url, filePath string, showProgressBar bool) (size int64, err error) {
	filePath = fsutil.MustReplaceTildeInDir(filePath)
	if err = os.MkdirAll(filepath.Dir(filePath), 0777); err != nil && !os.IsExist(err) {
		return 0, errors.Wrapf(err, "failed to create directory for %q", filePath)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return 0, errors.Wrapf(err, "failed creating file %q", filePath)
	}
	defer func() { _ = file.Close() }()

	resp, err := http.Get(url)
	if err != nil {
		return 0, errors.Wrapf(err, "failed downloading %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("downloading %q: unexpected status %s", url, resp.Status)
	}

	if showProgressBar {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(filePath))
		size, err = io.Copy(io.MultiWriter(file, bar), resp.Body)
		_ = bar.Close()
		fmt.Println()
	} else {
		size, err = io.Copy(file, resp.Body)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "downloading %q to %q", url, filePath)
	}
	return size, nil
}

// DownloadIfMissing downloads url to filePath unless the file already exists.
// If checkHash is non-empty the file's checksum is validated, pre-existing
// files included.
func DownloadIfMissing(url, filePath, checkHash string) error {
	filePath = fsutil.MustReplaceTildeInDir(filePath)
	if !fsutil.MustFileExists(filePath) {
		fmt.Printf("Downloading %s ...\n", url)
		if _, err := Download(url, filePath, true); err != nil {
			return err
		}
	}
	if checkHash == "" {
		return nil
	}
	return fsutil.ValidateChecksum(filePath, checkHash)
}

// Unzip extracts zipFile under baseDir. Entries escaping baseDir are
// rejected.
func Unzip(zipFile, baseDir string) error {
	reader, err := zip.OpenReader(zipFile)
	if err != nil {
		return errors.Wrapf(err, "failed to open zip %q", zipFile)
	}
	defer func() { _ = reader.Close() }()

	baseDir = filepath.Clean(fsutil.MustReplaceTildeInDir(baseDir))
	for _, entry := range reader.File {
		target := filepath.Join(baseDir, filepath.Clean(entry.Name))
		if !strings.HasPrefix(target, baseDir+string(os.PathSeparator)) {
			return errors.Errorf("zip %q: entry %q escapes target directory", zipFile, entry.Name)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0777); err != nil {
				return errors.Wrapf(err, "failed to create directory %q", target)
			}
			continue
		}
		if err := extractFile(entry, target); err != nil {
			return errors.WithMessagef(err, "while extracting %q", zipFile)
		}
	}
	return nil
}

func extractFile(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", target)
	}
	src, err := entry.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to open zip entry %q", entry.Name)
	}
	defer func() { _ = src.Close() }()
	dst, err := os.Create(target)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", target)
	}
	if _, err = io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return errors.Wrapf(err, "failed extracting %q to %q", entry.Name, target)
	}
	return errors.Wrapf(dst.Close(), "failed closing %q", target)
}

// DownloadAndUnzipIfMissing downloads zipFile from url (unless present) and
// extracts it under unzipBaseDir, skipping everything when targetUnzipDir
// already exists.
//
// If checkHash is provided, the archive's checksum is validated.
func DownloadAndUnzipIfMissing(url, zipFile, unzipBaseDir, targetUnzipDir, checkHash string) error {
	if fsutil.MustFileExists(targetUnzipDir) {
		return nil
	}
	if err := DownloadIfMissing(url, zipFile, checkHash); err != nil {
		return err
	}
	if err := Unzip(zipFile, unzipBaseDir); err != nil {
		return err
	}
	if !fsutil.MustFileExists(targetUnzipDir) {
		return errors.Errorf("downloaded from %q and unzipped %q, but didn't get directory %q",
			url, zipFile, targetUnzipDir)
	}
	return nil
}

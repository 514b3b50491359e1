package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"resit/models"
	"resit/pkg/ocr"
)

// Batch ingester: scans a drop directory of receipt images, runs the OCR
// pipeline on each and stores Scan rows. With -watch it keeps running and
// picks up newly dropped files (debounced, since large images arrive in
// several writes).

var (
	verbose bool
	db      *gorm.DB
	runner  = &ocr.Runner{Rec: &ocr.TesseractRecognizer{}}
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

func main() {
	dirFlag := flag.String("dir", "uploads/receipts", "directory to scan for receipt images")
	userID := flag.Uint("user-id", 0, "user ID to assign scans to (required unless -dry-run)")
	margin := flag.Float64("margin", ocr.DefaultMargin, "auto mode switch margin")
	dryRun := flag.Bool("dry-run", false, "list and OCR files without touching the database")
	watch := flag.Bool("watch", false, "watch directory for new files after the initial pass")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "verbose per-file logging")
	flag.Parse()

	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}

	if !*dryRun {
		if *userID == 0 {
			log.Fatal("-user-id is required (or use -dry-run)")
		}
		db = mustInitDBFromEnv()
		var user models.User
		if err := db.First(&user, *userID).Error; err != nil {
			log.Fatalf("user %d not found: %v", *userID, err)
		}
	}

	files := listImageFiles(*dirFlag)
	log.Printf("found %d candidate files in %s", len(files), *dirFlag)

	fileCh := make(chan string, 256)
	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processFile(*dirFlag, name, *userID, *margin, *dryRun)
			}
		}()
	}

	if *watch {
		go func() {
			for _, f := range files {
				fileCh <- f
			}
		}()
		if err := watchDirectory(*dirFlag, fileCh); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
		return
	}

	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)
	wg.Wait()
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func processFile(dir, name string, userID uint, margin float64, dryRun bool) {
	path := filepath.Join(dir, name)
	img, err := imaging.Open(path)
	if err != nil {
		log.Printf("%s: unreadable image: %v", name, err)
		return
	}
	res, err := runner.ScanImage(img, ocr.Options{Auto: true, Margin: margin})
	if err != nil {
		log.Printf("%s: scan failed: %v", name, err)
		if !dryRun {
			recordFailure(userID, name, path, err)
		}
		return
	}
	if verbose || dryRun {
		log.Printf("%s: mode=%s conf=%.3f merchant=%q date=%q totals=%v",
			name, res.Outcome.Mode, res.Outcome.MeanConfidence,
			res.Fields.Merchant, res.Fields.Date, res.Fields.Totals)
	}
	if dryRun {
		return
	}

	scan := models.Scan{UserID: userID, FileName: name}
	var existing models.Scan
	if err := db.Where("user_id = ? AND file_name = ?", userID, name).First(&existing).Error; err == nil {
		scan = existing
	}
	scan.StorePath = path
	scan.Mode = res.Outcome.Mode.String()
	scan.MeanConfidence = res.Outcome.MeanConfidence
	scan.BlendedScore = res.Outcome.BlendedScore
	scan.Merchant = res.Fields.Merchant
	scan.Date = res.Fields.Date
	scan.Totals = strings.Join(res.Fields.Totals, "\n")
	scan.RawText = res.RawText
	scan.CleanText = res.CleanText
	scan.Failed = false
	scan.FailedReason = ""
	if err := db.Save(&scan).Error; err != nil {
		log.Printf("%s: db save failed: %v", name, err)
	}
}

func recordFailure(userID uint, name, path string, cause error) {
	scan := models.Scan{UserID: userID, FileName: name}
	var existing models.Scan
	if err := db.Where("user_id = ? AND file_name = ?", userID, name).First(&existing).Error; err == nil {
		scan = existing
	}
	scan.StorePath = path
	scan.Failed = true
	reason := cause.Error()
	if len(reason) > 250 {
		reason = reason[:250]
	}
	scan.FailedReason = reason
	if err := db.Save(&scan).Error; err != nil {
		log.Printf("%s: db save failed: %v", name, err)
	}
}

// watchDirectory forwards newly created image files to fileCh. Events are
// debounced until a file has been quiet for 300ms so partially written
// images are not scanned.
func watchDirectory(dir string, fileCh chan<- string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("watching %s (debounced) ...", dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				close(fileCh)
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				name := filepath.Base(ev.Name)
				if isSupportedExt(name) {
					pending[name] = time.Now()
				}
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // stable
					fileCh <- name
					delete(pending, name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				close(fileCh)
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

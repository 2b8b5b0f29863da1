package reader

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shelf/internal/content"
	"github.com/mrlokans/shelf/internal/database/books"
	"github.com/mrlokans/shelf/internal/database/progress"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/importer"
	"github.com/mrlokans/shelf/internal/pagecache"
	"github.com/mrlokans/shelf/internal/render"
)

// writeEPUB assembles a small but valid EPUB on disk. Each chapter is its
// own spine item, so the rasterized layout has at least one page per
// chapter regardless of viewport.
func writeEPUB(t *testing.T, path string, chapters int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)

	// The mimetype entry must come first and be stored uncompressed.
	mimetype, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = mimetype.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	addFile := func(name, body string) {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(body))
		require.NoError(t, err)
	}

	addFile("META-INF/container.xml", `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	var manifest, spine strings.Builder
	for i := 1; i <= chapters; i++ {
		fmt.Fprintf(&manifest, `    <item id="ch%d" href="ch%d.xhtml" media-type="application/xhtml+xml"/>
`, i, i)
		fmt.Fprintf(&spine, `    <itemref idref="ch%d"/>
`, i)
	}

	addFile("OEBPS/content.opf", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="uid" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">flatland-test-1884</dc:identifier>
    <dc:title>Flatland</dc:title>
    <dc:creator>Edwin A. Abbott</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
%s  </manifest>
  <spine toc="ncx">
%s  </spine>
</package>`, manifest.String(), spine.String()))

	addFile("OEBPS/toc.ncx", `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="flatland-test-1884"/>
  </head>
  <docTitle><text>Flatland</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter 1</text></navLabel>
      <content src="ch1.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`)

	for i := 1; i <= chapters; i++ {
		addFile(fmt.Sprintf("OEBPS/ch%d.xhtml", i), fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter %d</title></head>
<body>
<h1>Chapter %d</h1>
<p>Of the nature of Flatland and the manner of its inhabitants, with some
remarks upon the configuration of its houses and the climate thereof.</p>
</body>
</html>`, i, i))
	}

	require.NoError(t, w.Close())
}

// Drives a real EPUB along the full reading path: import, open, render a
// page, flip forward, close, then reopen the store and find the position.
func TestReadingFlow_EPUB(t *testing.T) {
	dir := t.TempDir()

	bookPath := filepath.Join(dir, "flatland.epub")
	writeEPUB(t, bookPath, 6)

	dbPath := filepath.Join(dir, "library.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.Book{},
		&entities.CollectionMembership{},
		&entities.ReadingPosition{},
	))

	booksRepo := books.NewRepository(db)
	progressRepo := progress.NewRepository(db)
	opener := content.NewOpener(content.DefaultViewport)

	book, err := importer.New(booksRepo, opener, nil).Import(bookPath)
	require.NoError(t, err)
	assert.Equal(t, "Flatland", book.Title)
	assert.Equal(t, "Edwin A. Abbott", book.Author)
	assert.Equal(t, entities.FormatEPUB, book.Format)

	cache, err := pagecache.New(16)
	require.NoError(t, err)
	renders := render.NewService(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	renders.Start(ctx)
	t.Cleanup(func() {
		cancel()
		renders.Stop()
	})

	manager := NewManager(booksRepo, progressRepo, opener, renders, cache, time.Hour)
	go manager.Run(ctx)

	session, err := manager.Open(book.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, session.PageCount(), 6, "each chapter should lay out to at least one page")

	img, err := session.Page(0)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.False(t, img.Bounds().Empty(), "rendered page should not be empty")

	assert.Equal(t, 5, session.GoToPage(5))
	require.NoError(t, manager.Close(book.ID))

	// Reopen the store from scratch; the position must have survived.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	reopened, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		rdb, _ := reopened.DB()
		rdb.Close()
	})

	position, err := progress.NewRepository(reopened).GetReadingPosition(book.ID)
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, 5, position.PageIndex)
	assert.Equal(t, session.PageCount(), position.TotalPages)
}

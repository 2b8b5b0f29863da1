package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/database"
	"github.com/mrlokans/shelf/internal/entities"
)

// CollectionStore defines the membership operations the collections
// controller needs.
type CollectionStore interface {
	ToggleMembership(bookID uint, collection string) (bool, error)
	CollectionsForBook(bookID uint) ([]string, error)
	MembershipCounts() (map[string]int64, error)
}

// CollectionCatalog lists the known collections. *database.Database
// implements it.
type CollectionCatalog interface {
	GetCollections() ([]entities.Collection, error)
	IsKnownCollection(name string) (bool, error)
}

type CollectionsController struct {
	store   CollectionStore
	catalog CollectionCatalog
}

func NewCollectionsController(store CollectionStore, catalog CollectionCatalog) *CollectionsController {
	return &CollectionsController{store: store, catalog: catalog}
}

// ListCollections returns every collection with its member count.
// GET /api/collections
func (cc *CollectionsController) ListCollections(c *gin.Context) {
	collections, err := cc.catalog.GetCollections()
	if err != nil {
		respondInternalError(c, err, "list collections")
		return
	}

	counts, err := cc.store.MembershipCounts()
	if err != nil {
		respondInternalError(c, err, "count memberships")
		return
	}

	type collectionInfo struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		BookCount   int64  `json:"book_count"`
	}

	result := make([]collectionInfo, 0, len(collections))
	for _, col := range collections {
		result = append(result, collectionInfo{
			Name:        col.Name,
			DisplayName: col.DisplayName,
			BookCount:   counts[col.Name],
		})
	}
	c.IndentedJSON(http.StatusOK, gin.H{"collections": result})
}

// ToggleMembership flips a book's membership in a collection: present
// becomes absent and absent becomes present.
// POST /api/books/:id/collections/:name
func (cc *CollectionsController) ToggleMembership(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	name := c.Param("name")
	known, err := cc.catalog.IsKnownCollection(name)
	if err != nil {
		respondInternalError(c, err, "check collection")
		return
	}
	if !known {
		respondNotFound(c, "collection")
		return
	}

	member, err := cc.store.ToggleMembership(id, name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "toggle membership")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"book_id":    id,
		"collection": name,
		"member":     member,
	})
}

// BookCollections lists the collections a book belongs to.
// GET /api/books/:id/collections
func (cc *CollectionsController) BookCollections(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	names, err := cc.store.CollectionsForBook(id)
	if err != nil {
		respondInternalError(c, err, "book collections")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"book_id": id, "collections": names})
}

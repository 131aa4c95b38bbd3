package simsearch

import (
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"

	"itemsclassification/internal/vectordb"
	"itemsclassification/models"
)

// Product is the text side of an item used for embedding.
type Product struct {
	Season                       string `json:"season"`
	SupplierName                 string `json:"supplier_name"`
	SupplierReferenceDescription string `json:"supplier_reference_description"`
	Materials                    string `json:"materials"`
	ImageDescription             string `json:"image_description"`
}

// Representation renders the product the same way for reference data and
// for items being classified, so their embeddings are comparable.
func (p Product) Representation() string {
	return fmt.Sprintf("Product for season: %v\nProducer: %v\nProduct name: %v\nMaterials: %v\nImage description: %v",
		orNone(p.Season),
		orNone(plainText(p.SupplierName)),
		orNone(plainText(p.SupplierReferenceDescription)),
		orNone(p.Materials),
		orNone(p.ImageDescription),
	)
}

// ReferenceItem is an already classified item stored as reference data.
type ReferenceItem struct {
	ItemID int64 `json:"item_id" binding:"required"`
	Product

	Main   string `json:"main" binding:"required"`
	Sub    string `json:"sub"`
	Detail string `json:"detail"`
	Level4 string `json:"level4"`
}

func (r ReferenceItem) Record() vectordb.Record {
	return vectordb.Record{
		Text: r.Representation(),
		Metadata: map[string]any{
			vectordb.ItemIDKey: r.ItemID,
			"main":             r.Main,
			"sub":              r.Sub,
			"detail":           r.Detail,
			"level4":           r.Level4,
		},
	}
}

// ReferenceItemFromModel converts a classified item row.
func ReferenceItemFromModel(item models.Item) ReferenceItem {
	return ReferenceItem{
		ItemID:  item.OriginID,
		Product: productOf(item),
		Main:    deref(item.Main),
		Sub:     deref(item.Sub),
		Detail:  deref(item.Detail),
		Level4:  deref(item.Level4),
	}
}

func productOf(item models.Item) Product {
	return Product{
		Season:                       item.Season,
		SupplierName:                 item.SupplierName,
		SupplierReferenceDescription: item.SupplierReferenceDescription,
		Materials:                    deref(item.Materials),
	}
}

// plainText strips markup some suppliers put into their texts.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	text, err := html2text.FromString(s, html2text.Options{TextOnly: true})
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(text), " ")
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

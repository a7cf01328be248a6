package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"jewels/internal/catalog"
	"jewels/internal/imageurl"
	"jewels/internal/store"
	"jewels/internal/uploads"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 20 * 1024 * 1024 // 20MB across all images in one request

// productForm carries the scalar product fields of a multipart request.
// Optional fields are pointers so "absent" and "empty" stay distinct.
type productForm struct {
	name        string
	description string
	price       float64
	maxPrice    *float64
	category    string
	brand       *string
	collection  *string
	isNew       bool
	isLimited   bool
}

func parseProductForm(r *http.Request) (productForm, error) {
	form := productForm{
		name:        strings.TrimSpace(r.FormValue("name")),
		description: strings.TrimSpace(r.FormValue("description")),
		category:    strings.TrimSpace(r.FormValue("category")),
	}

	priceStr := strings.TrimSpace(r.FormValue("price"))
	if form.name == "" || priceStr == "" {
		return form, fmt.Errorf("name and price are required")
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price < 0 {
		return form, fmt.Errorf("invalid price %q", priceStr)
	}
	form.price = price

	if v := strings.TrimSpace(r.FormValue("max_price")); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil || maxPrice < 0 {
			return form, fmt.Errorf("invalid max_price %q", v)
		}
		if maxPrice < price {
			return form, fmt.Errorf("max_price must be greater than or equal to price")
		}
		form.maxPrice = &maxPrice
	}

	if form.category == "" {
		form.category = "Other"
	}
	if v := strings.TrimSpace(r.FormValue("brand")); v != "" {
		form.brand = &v
	}
	if v := strings.TrimSpace(r.FormValue("collection")); v != "" {
		form.collection = &v
	}
	if v := strings.TrimSpace(r.FormValue("is_new")); v != "" {
		form.isNew, _ = strconv.ParseBool(v)
	}
	if v := strings.TrimSpace(r.FormValue("is_limited")); v != "" {
		form.isLimited, _ = strconv.ParseBool(v)
	}
	return form, nil
}

func (f productForm) apply(p *store.Product) {
	p.Name = f.name
	p.Description = f.description
	p.Price = f.price
	p.MaxPrice = f.maxPrice
	p.Category = f.category
	p.Brand = f.brand
	p.Collection = f.collection
	p.IsNew = f.isNew
	p.IsLimited = f.isLimited
}

// saveUploadedImages stores every acceptable file from the "images" form
// field and returns the generated tokens in upload order. A file that fails
// validation or cannot be written is skipped, never fatal.
func (app *application) saveUploadedImages(r *http.Request) []string {
	saved := []string{}
	if r.MultipartForm == nil {
		return saved
	}

	for _, header := range r.MultipartForm.File["images"] {
		name, err := app.saveUploadedImage(header)
		if err != nil {
			app.logger.Warnw("skipping image upload", "filename", header.Filename, "error", err)
			continue
		}
		saved = append(saved, name)
	}
	return saved
}

func (app *application) saveUploadedImage(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	return app.uploads.Save(file, header.Filename)
}

// normalized returns a copy whose image references are canonical absolute
// URLs; rows written by earlier deployments may hold any of the legacy forms.
func (app *application) normalized(p store.Product) store.Product {
	images := make([]string, len(p.Images))
	for i, img := range p.Images {
		images[i] = app.images.Normalize(img)
	}
	p.Images = images
	return p
}

func productIDParam(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product ID: %s", idStr)
	}
	return id, nil
}

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := app.store.Products.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("list products: %w", err))
		return
	}

	for i := range products {
		products[i] = app.normalized(products[i])
	}
	products = catalog.Apply(products, catalog.ParseFilter(r.URL.Query()))

	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, app.normalized(*product)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form, err := parseProductForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product := &store.Product{Images: app.saveUploadedImages(r)}
	form.apply(product)

	if err := app.store.Products.Create(r.Context(), product); err != nil {
		// The row never landed; do not keep its files around.
		for _, img := range product.Images {
			_ = app.uploads.Remove(img)
		}
		app.internalServerError(w, r, fmt.Errorf("create product: %w", err))
		return
	}

	app.logger.Infow("product created", "id", product.ID, "name", product.Name, "images", len(product.Images))

	if err := app.jsonResponse(w, http.StatusCreated, app.normalized(*product)); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form, err := parseProductForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	existing := []string{}
	if v := r.FormValue("existing_images"); v != "" {
		var refs []string
		if err := json.Unmarshal([]byte(v), &refs); err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid existing_images: %w", err))
			return
		}
		// Clients send back the normalized URLs they were served; only the
		// filename token is persisted.
		for _, ref := range refs {
			if name := imageurl.Filename(ref); name != "" {
				existing = append(existing, name)
			}
		}
	}

	newImages := app.saveUploadedImages(r)
	keepExisting := r.FormValue("keep_existing_images") == "true"

	// Image list policy: keep-existing appends uploads after the retained
	// list; otherwise uploads replace it, except that zero uploads fall back
	// to the existing list. Images cannot be cleared through this endpoint.
	switch {
	case keepExisting:
		product.Images = append(existing, newImages...)
	case len(newImages) > 0:
		product.Images = newImages
	default:
		product.Images = existing
	}

	form.apply(product)

	if err := app.store.Products.Update(r.Context(), product); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		default:
			app.internalServerError(w, r, fmt.Errorf("update product: %w", err))
		}
		return
	}

	updated, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("fetch updated product: %w", err))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": app.normalized(*updated),
	})
}

type deleteProductsPayload struct {
	ID  *int64  `json:"id"`
	IDs []int64 `json:"ids"`
}

// deleteProductsHandler removes one or many products plus their image files.
// Row deletes are atomic per batch; file removals are best effort and are not
// rolled back with the rows.
func (app *application) deleteProductsHandler(w http.ResponseWriter, r *http.Request) {
	var payload deleteProductsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ids := payload.IDs
	if len(ids) == 0 && payload.ID != nil {
		ids = []int64{*payload.ID}
	}
	if len(ids) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("product ID(s) missing"))
		return
	}

	count, err := app.store.Products.DeleteMany(r.Context(), ids, app.uploads)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("delete products: %w", err))
		return
	}

	app.logger.Infow("products deleted", "requested", len(ids), "deleted", count)

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Successfully deleted %d product(s) and their associated images.", count),
		"count":   count,
	})
}

func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	count, err := app.store.Products.DeleteMany(r.Context(), []int64{id}, app.uploads)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("delete product: %w", err))
		return
	}
	if count == 0 {
		app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Product deleted successfully",
		"count":   count,
	})
}

// productEnquiryHandler builds the contact-to-buy WhatsApp link for a product.
func (app *application) productEnquiryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, fmt.Errorf("product not found"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	message := fmt.Sprintf(
		"Hello, I am interested in purchasing the %s (%s). Kindly confirm availability. Thank you!",
		product.Name, product.PriceDisplay(),
	)

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"url":     "https://wa.me/" + app.config.whatsapp + "?text=" + url.QueryEscape(message),
		"message": message,
	})
}

var _ store.FileRemover = (*uploads.LocalStore)(nil)

package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"kfolx-backend-go/internal/models"
	"kfolx-backend-go/internal/store"
)

// AdService owns the ad lifecycle: validation, uploads and the transactional
// writes behind post-ad, edit-ad and delete.
type AdService struct {
	Store  store.Gateway
	Images ImageStore
	Feed   *ListingHub
}

func NewAdService(gateway store.Gateway, images ImageStore, feed *ListingHub) *AdService {
	return &AdService{Store: gateway, Images: images, Feed: feed}
}

// Create validates everything before touching disk or database, then writes the
// ad and its images in one transaction. Files saved for a failed transaction
// are removed.
func (s *AdService) Create(ctx context.Context, ownerID int64, input AdInput, files []UploadedFile) (int64, error) {
	fields, errs := validateAdFields(input, false)
	if err := s.checkCategory(ctx, fields.CategoryID, errs); err != nil {
		return 0, err
	}
	images := checkImageBatch(files, 0, false, errs)
	if len(errs) > 0 {
		return 0, ErrValidation(errs)
	}

	saved, err := s.Images.SaveAll(images)
	if err != nil {
		return 0, ErrUpload("images", "Gagal mengupload gambar", err)
	}

	var adID int64
	err = s.Store.InTx(ctx, func(tx store.Ads) error {
		id, err := tx.CreateAd(ctx, models.NewAd{
			UserID:      ownerID,
			CategoryID:  fields.CategoryID,
			Title:       fields.Title,
			Description: fields.Description,
			Price:       fields.Price,
			Location:    fields.Location,
			Phone:       fields.Phone,
		})
		if err != nil {
			return err
		}
		adID = id
		return tx.AttachImages(ctx, id, saved, true)
	})
	if err != nil {
		s.Images.Remove(saved...)
		return 0, ErrPersistence("ads: create", err)
	}

	if s.Feed != nil {
		s.Feed.Broadcast(ListingEvent{
			Type:       "ad.created",
			AdID:       adID,
			Title:      fields.Title,
			Price:      fields.Price,
			PriceLabel: FormatPrice(fields.Price),
			Location:   fields.Location,
			CategoryID: fields.CategoryID,
		})
	}
	return adID, nil
}

// Edit re-validates the form, enforces the 1..10 image bound on the result and
// applies row update, image deletions and new images atomically. Deleted files
// are unlinked only after commit.
func (s *AdService) Edit(ctx context.Context, adID, ownerID int64, input AdInput, deleteIDs []int64, files []UploadedFile) error {
	current, err := s.Store.OwnedAd(ctx, adID, ownerID)
	if err != nil {
		return s.ownedErr("ads: edit", err)
	}

	fields, errs := validateAdFields(input, true)
	if err := s.checkCategory(ctx, fields.CategoryID, errs); err != nil {
		return err
	}

	existing, err := s.Store.ListImages(ctx, adID)
	if err != nil {
		return ErrPersistence("ads: edit", err)
	}
	deletions := matchImageIDs(existing, deleteIDs)
	remaining := len(existing) - len(deletions)
	images := checkImageBatch(files, remaining, true, errs)
	if len(errs) > 0 {
		return ErrValidation(errs)
	}

	saved, err := s.Images.SaveAll(images)
	if err != nil {
		return ErrUpload("images", "Gagal mengupload gambar", err)
	}

	var removed []string
	err = s.Store.InTx(ctx, func(tx store.Ads) error {
		if err := tx.UpdateAd(ctx, adID, ownerID, models.AdUpdate{
			CategoryID:  fields.CategoryID,
			Title:       fields.Title,
			Description: fields.Description,
			Price:       fields.Price,
			Location:    fields.Location,
			Phone:       fields.Phone,
			Status:      resolveEditStatus(input.Status, current.Status),
		}); err != nil {
			return err
		}
		paths, err := tx.DeleteImages(ctx, adID, deletions)
		if err != nil {
			return err
		}
		removed = paths
		return tx.AttachImages(ctx, adID, saved, false)
	})
	if err != nil {
		s.Images.Remove(saved...)
		return s.ownedErr("ads: edit", err)
	}
	s.Images.Remove(removed...)
	return nil
}

// Delete removes an owned ad and its image rows, then its files.
func (s *AdService) Delete(ctx context.Context, adID, ownerID int64) error {
	var paths []string
	err := s.Store.InTx(ctx, func(tx store.Ads) error {
		removed, err := tx.DeleteAd(ctx, adID, ownerID)
		paths = removed
		return err
	})
	if err != nil {
		return s.ownedErr("ads: delete", err)
	}
	s.Images.Remove(paths...)
	return nil
}

// SetStatus moves an owned ad to any of the three states.
func (s *AdService) SetStatus(ctx context.Context, adID, ownerID int64, status string) error {
	if !models.ValidStatus(status) {
		return ErrValidation(map[string]string{"status": "Status tidak valid"})
	}
	if err := s.Store.SetStatus(ctx, adID, ownerID, status); err != nil {
		return s.ownedErr("ads: status", err)
	}
	return nil
}

func (s *AdService) checkCategory(ctx context.Context, categoryID int64, errs map[string]string) error {
	if categoryID <= 0 {
		return nil
	}
	ok, err := s.Store.CategoryActive(ctx, categoryID)
	if err != nil {
		return ErrPersistence("ads: category", err)
	}
	if !ok {
		errs["category_id"] = "Pilih kategori yang valid"
	}
	return nil
}

func (s *AdService) ownedErr(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(msgAdNotFound)
	}
	return ErrPersistence(op, err)
}

// checkImageBatch validates new uploads given how many images the ad keeps.
// The first problem found is reported on the images field.
func checkImageBatch(files []UploadedFile, kept int, editing bool, errs map[string]string) []checkedImage {
	total := kept + len(files)
	switch {
	case total < MinAdImages:
		if editing {
			errs["images"] = "Iklan harus memiliki minimal 1 gambar"
		} else {
			errs["images"] = "Minimal unggah 1 gambar"
		}
		return nil
	case total > MaxAdImages:
		if !editing {
			errs["images"] = fmt.Sprintf("Maksimal %d foto yang dapat diunggah", MaxAdImages)
		} else {
			errs["images"] = fmt.Sprintf("Maksimal %d gambar per iklan. Anda memiliki %d gambar yang tersisa.", MaxAdImages, kept)
		}
		return nil
	}
	checked := make([]checkedImage, 0, len(files))
	for _, file := range files {
		img, msg := inspectImage(file)
		if msg != "" {
			errs["images"] = msg
			return nil
		}
		checked = append(checked, img)
	}
	return checked
}

// matchImageIDs keeps the requested ids that belong to the ad, once each.
func matchImageIDs(existing []models.AdImage, requested []int64) []int64 {
	owned := make(map[int64]bool, len(existing))
	for _, img := range existing {
		owned[img.ID] = true
	}
	seen := map[int64]bool{}
	matched := make([]int64, 0, len(requested))
	for _, id := range requested {
		if owned[id] && !seen[id] {
			seen[id] = true
			matched = append(matched, id)
		}
	}
	return matched
}

func logBestEffort(op string, err error) {
	if err != nil {
		log.Printf("%s: %v", op, err)
	}
}

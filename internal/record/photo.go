package record

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"recordapi/internal/attachment"
)

const photoPrefix = "photo"

// photoName is "photo-<digest prefix>-<timestamp>" so that distinct photos saved in the same
// second never collide.
func photoName(digest string, t time.Time) string {
	if len(digest) > 8 {
		digest = digest[:8]
	}
	return attachment.Name(photoPrefix+"-"+digest, t)
}

// SetPhoto adds one uploaded photo.
func (r *Record) SetPhoto(clock attachment.Clock, up attachment.Upload) error {
	return r.SetPhotos(clock, []attachment.Upload{up})
}

// SetPhotos adds uploaded photos in order. A photo whose bytes match an existing photo is skipped.
func (r *Record) SetPhotos(clock attachment.Clock, ups []attachment.Upload) error {
	for _, up := range ups {
		if err := r.addPhoto(clock, up); err != nil {
			return err
		}
	}
	r.resolveRequestedPrimary()
	return nil
}

// SetPhotosKeyed adds photos submitted as {"0": a, "1": b}, in numeric key order.
func (r *Record) SetPhotosKeyed(clock attachment.Clock, ups map[string]attachment.Upload) error {
	keys := make([]string, 0, len(ups))
	for k := range ups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	ordered := make([]attachment.Upload, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, ups[k])
	}
	return r.SetPhotos(clock, ordered)
}

func (r *Record) addPhoto(clock attachment.Clock, up attachment.Upload) error {
	a, err := attachment.FromUpload(clock, up, photoPrefix)
	if err != nil {
		return err
	}
	if existing := r.photoWithDigest(a.Digest); existing != "" {
		r.uploadNames[up.OriginalFilename()] = existing
		return nil
	}
	a.Name = photoName(a.Digest, clock.Now())
	r.Attachments.Put(a)
	r.PhotoKeys = append(r.PhotoKeys, a.Name)
	r.pendingPhotos[a.Name] = true
	if up.OriginalFilename() != "" {
		r.uploadNames[up.OriginalFilename()] = a.Name
	}
	return nil
}

func (r *Record) photoWithDigest(digest string) string {
	for _, k := range r.PhotoKeys {
		if a := r.Attachments.Get(k); a != nil && a.Digest == digest {
			return k
		}
	}
	return ""
}

func (r *Record) resolveRequestedPrimary() {
	if r.requestedPrimary == "" {
		return
	}
	if key, ok := r.uploadNames[r.requestedPrimary]; ok {
		r.PrimaryPhotoID = key
		r.requestedPrimary = ""
	}
}

// Photos returns the record's photos in key order with the primary photo first.
func (r *Record) Photos() []*attachment.Attachment {
	out := make([]*attachment.Attachment, 0, len(r.PhotoKeys))
	var primary *attachment.Attachment
	for _, k := range r.PhotoKeys {
		a := r.Attachments.Get(k)
		if a == nil {
			continue
		}
		if k == r.PrimaryPhotoID {
			primary = a
			continue
		}
		out = append(out, a)
	}
	if primary != nil {
		out = append([]*attachment.Attachment{primary}, out...)
	}
	return out
}

// PrimaryPhoto returns the first of Photos, or nil.
func (r *Record) PrimaryPhoto() *attachment.Attachment {
	photos := r.Photos()
	if len(photos) == 0 {
		return nil
	}
	return photos[0]
}

// SetPrimaryPhoto designates one of the record's photos as primary.
func (r *Record) SetPrimaryPhoto(name string) error {
	if r.photoIndex(name) < 0 {
		return fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	r.PrimaryPhotoID = name
	return nil
}

func (r *Record) photoIndex(name string) int {
	for i, k := range r.PhotoKeys {
		if k == name {
			return i
		}
	}
	return -1
}

// RotatePhoto replaces the primary photo with a rotated copy under a new name, keeping its
// position in PhotoKeys and its primary status. Derivatives of the old orientation are dropped.
// A rotation producing the same name leaves the record untouched and returns ErrRotationUnchanged.
func (r *Record) RotatePhoto(clock attachment.Clock, images ImageProcessor, degrees int) error {
	old := r.PrimaryPhoto()
	if old == nil {
		return ErrNoPrimaryPhoto
	}
	if old.Data == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, old.Name)
	}
	rotated, err := images.Rotate(old.Data, old.ContentType, degrees)
	if err != nil {
		return fmt.Errorf("rotate %s: %w", old.Name, err)
	}
	a := attachment.New(photoName(attachment.Digest(rotated), clock.Now()), old.ContentType, rotated)
	if a.Name == old.Name {
		return fmt.Errorf("%w: %s", ErrRotationUnchanged, old.Name)
	}
	idx := r.photoIndex(old.Name)
	wasPrimary := r.PrimaryPhotoID == old.Name

	r.Attachments.RemoveWithDerivatives(old.Name)
	delete(r.pendingPhotos, old.Name)
	r.Attachments.Put(a)
	r.PhotoKeys[idx] = a.Name
	r.pendingPhotos[a.Name] = true
	if wasPrimary {
		r.PrimaryPhotoID = a.Name
	}
	return nil
}

// DeletePhotos removes the named photos together with their "<name>_<suffix>" variants.
// Deleting the primary photo makes the next photo primary. Unknown names are ignored.
func (r *Record) DeletePhotos(names []string) []string {
	var removed []string
	for _, name := range names {
		idx := r.photoIndex(name)
		if idx < 0 {
			continue
		}
		removed = append(removed, r.Attachments.RemoveWithDerivatives(name)...)
		removed = append(removed, r.Attachments.RemoveMatching(attachment.DerivativeName(name, ""))...)
		r.PhotoKeys = append(r.PhotoKeys[:idx:idx], r.PhotoKeys[idx+1:]...)
		delete(r.pendingPhotos, name)
		if r.PrimaryPhotoID == name {
			r.PrimaryPhotoID = ""
		}
	}
	return removed
}

// PhotoVariant returns the "<name>_<w>x<h>" variant of a photo, creating it when missing.
// A zero height yields "<name>_<w>".
func (r *Record) PhotoVariant(images ImageProcessor, name string, width, height int) (*attachment.Attachment, bool, error) {
	if r.photoIndex(name) < 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	suffix := strconv.Itoa(width)
	if height > 0 {
		suffix = fmt.Sprintf("%dx%d", width, height)
	}
	if v := r.Attachments.Get(attachment.DerivativeName(name, suffix)); v != nil {
		return v, false, nil
	}
	src := r.Attachments.Get(name)
	if src == nil {
		return nil, false, fmt.Errorf("%w: %s", ErrPhotoNotFound, name)
	}
	if src.Data == nil {
		return nil, false, fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	data, err := images.Resize(src.Data, src.ContentType, width, height)
	if err != nil {
		return nil, false, fmt.Errorf("resize %s: %w", name, err)
	}
	return r.Attachments.PutDerivative(name, suffix, src.ContentType, data), true, nil
}

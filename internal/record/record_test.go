package record

import (
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordapi/internal/attachment"
	"recordapi/internal/audit"
	"recordapi/internal/model"
)

var saveTime = time.Date(2010, 2, 20, 12, 4, 32, 0, time.UTC)

// rotator reverses bytes as its "rotation" and prefixes the size for resizes.
type rotator struct{ err error }

func (r rotator) Rotate(data []byte, _ string, _ int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out, nil
}

func (r rotator) Resize(data []byte, _ string, w, h int) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]byte{byte(w), byte(h)}, data...), nil
}

func photoUpload(filename, body string) attachment.Upload {
	return attachment.BytesUpload{Filename: filename, Type: "image/png", Data: []byte(body)}
}

func amr(body string) attachment.Upload {
	return attachment.BytesUpload{Filename: "sample.amr", Type: "audio/amr", Data: []byte(body)}
}

// persist mimics a successful save at revision+1.
func persist(r *Record) {
	doc := r.ToDocument()
	if doc.ID == "" {
		doc.ID = "rec-1"
	}
	doc.Revision++
	r.CommitSave(doc)
}

func TestNew_LiftsAttributionFields(t *testing.T) {
	r := New(map[string]any{
		"name":                 "Ada",
		"created_by":           "rapidftr",
		"created_organisation": "stc",
		"histories":            []any{"ignored"},
	})

	assert.True(t, r.IsNew())
	assert.Equal(t, "rapidftr", r.CreatedBy)
	assert.Equal(t, "stc", r.CreatedOrganisation)
	assert.Equal(t, map[string]any{"name": "Ada"}, r.Fields)
	assert.Nil(t, r.Get(CurrentPhotoKeyField))
}

func TestSetPhotos(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}

	t.Run("names carry digest and timestamp", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetPhotos(clock, []attachment.Upload{photoUpload("a.png", "aaa"), photoUpload("b.png", "bbb")}))

		require.Len(t, r.PhotoKeys, 2)
		assert.Regexp(t, `^photo-[0-9a-f]{8}-2010-02-20T120432$`, r.PhotoKeys[0])
		assert.NotEqual(t, r.PhotoKeys[0], r.PhotoKeys[1])
		assert.Equal(t, r.PhotoKeys[0], r.Get(CurrentPhotoKeyField))
	})

	t.Run("identical bytes are stored once", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetPhoto(clock, photoUpload("a.png", "same")))
		later := &attachment.FixedClock{T: saveTime.Add(time.Minute)}
		require.NoError(t, r.SetPhoto(later, photoUpload("again.png", "same")))

		assert.Len(t, r.PhotoKeys, 1)
		assert.Equal(t, 1, r.Attachments.Len())
	})

	t.Run("duplicates within one batch count once", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetPhotos(clock, []attachment.Upload{
			photoUpload("a.png", "aaa"), photoUpload("b.png", "bbb"), photoUpload("a-copy.png", "aaa"),
		}))

		assert.Len(t, r.Photos(), 2)
	})

	t.Run("keyed uploads in numeric order", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetPhotosKeyed(clock, map[string]attachment.Upload{
			"10": photoUpload("c.png", "ccc"),
			"2":  photoUpload("b.png", "bbb"),
			"0":  photoUpload("a.png", "aaa"),
		}))
		want := []string{
			photoName(attachment.Digest([]byte("aaa")), saveTime),
			photoName(attachment.Digest([]byte("bbb")), saveTime),
			photoName(attachment.Digest([]byte("ccc")), saveTime),
		}
		assert.Equal(t, want, r.PhotoKeys)
	})

	t.Run("current_photo_key by upload filename", func(t *testing.T) {
		r := New(map[string]any{CurrentPhotoKeyField: "b.png"})
		require.NoError(t, r.SetPhotos(clock, []attachment.Upload{photoUpload("a.png", "aaa"), photoUpload("b.png", "bbb")}))

		assert.Equal(t, r.PhotoKeys[1], r.PrimaryPhotoID)
		assert.Equal(t, r.PhotoKeys[1], r.PrimaryPhoto().Name)
	})
}

func TestPhotos_NoneSet(t *testing.T) {
	r := New(map[string]any{"name": "Ann"})

	assert.Empty(t, r.Photos())
	assert.Nil(t, r.PrimaryPhoto())
	assert.Nil(t, r.Get(CurrentPhotoKeyField))
}

func TestPhotos_PrimaryFirst(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	r := New(nil)
	require.NoError(t, r.SetPhotos(clock, []attachment.Upload{photoUpload("a", "1"), photoUpload("b", "2"), photoUpload("c", "3")}))
	require.NoError(t, r.SetPrimaryPhoto(r.PhotoKeys[2]))

	names := []string{}
	for _, p := range r.Photos() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{r.PhotoKeys[2], r.PhotoKeys[0], r.PhotoKeys[1]}, names)

	err := r.SetPrimaryPhoto("photo-unknown")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestRotatePhoto(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	r := New(nil)
	require.NoError(t, r.SetPhotos(clock, []attachment.Upload{photoUpload("a", "abc"), photoUpload("b", "xyz")}))
	require.NoError(t, r.SetPrimaryPhoto(r.PhotoKeys[1]))
	persist(r)
	old := r.PhotoKeys[1]
	_, _, err := r.PhotoVariant(rotator{}, old, 16, 16)
	require.NoError(t, err)

	clock.T = saveTime.Add(time.Hour)
	require.NoError(t, r.RotatePhoto(clock, rotator{}, 90))

	rotated := r.PhotoKeys[1]
	assert.Len(t, r.Photos(), 2)
	assert.NotEqual(t, old, rotated)
	assert.Equal(t, rotated, r.PrimaryPhotoID)
	assert.Equal(t, []byte("zyx"), r.Attachments.Get(rotated).Data)
	assert.False(t, r.Attachments.Has(old))
	assert.False(t, r.Attachments.Has(old+"_16x16"))
	assert.Equal(t, []string{old}, r.Attachments.Removed())

	changes := r.Changes([]string{audit.PhotoKeysField})
	assert.Equal(t, audit.Change{Kind: audit.KeysChange, Added: []string{rotated}, Deleted: []string{old}}, changes[audit.PhotoKeysField])
}

func TestRotatePhoto_Errors(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	assert.ErrorIs(t, New(nil).RotatePhoto(clock, rotator{}, 90), ErrNoPrimaryPhoto)

	r := FromDocument(model.RecordDocument{
		ID: "rec-1", Revision: 1,
		PhotoKeys:   []string{"photo-a"},
		Attachments: []model.AttachmentMeta{{Name: "photo-a", ContentType: "image/png"}},
	})
	assert.ErrorIs(t, r.RotatePhoto(clock, rotator{}, 90), ErrNotLoaded)

	r.Attachments.Get("photo-a").Data = []byte("a")
	boom := errors.New("boom")
	assert.ErrorIs(t, r.RotatePhoto(clock, rotator{err: boom}, 90), boom)
}

func TestRotatePhoto_SameNameWithinSecond(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	r := New(nil)
	require.NoError(t, r.SetPhoto(clock, photoUpload("a", "aba")))
	persist(r)
	before := r.PhotoKeys[0]

	err := r.RotatePhoto(clock, rotator{}, 180)

	assert.ErrorIs(t, err, ErrRotationUnchanged)
	assert.Equal(t, []string{before}, r.PhotoKeys)
	assert.Equal(t, before, r.PrimaryPhoto().Name)
	assert.Empty(t, r.Attachments.Pending())
	assert.Empty(t, r.Attachments.Removed())
}

func TestDeletePhotos(t *testing.T) {
	r := FromDocument(model.RecordDocument{
		ID: "rec-1", Revision: 3,
		PhotoKeys:      []string{"photo-a", "photo-b", "photo-c"},
		PrimaryPhotoID: "photo-a",
		Attachments: []model.AttachmentMeta{
			{Name: "photo-a"},
			{Name: "photo-a_160x160", ParentKey: "photo-a"},
			{Name: "photo-a_32"},
			{Name: "photo-b"},
			{Name: "photo-c"},
		},
	})

	removed := r.DeletePhotos([]string{"photo-a", "photo-missing"})

	assert.ElementsMatch(t, []string{"photo-a", "photo-a_160x160", "photo-a_32"}, removed)
	assert.Equal(t, []string{"photo-b", "photo-c"}, r.PhotoKeys)
	assert.Equal(t, "photo-b", r.PrimaryPhoto().Name)
	assert.Equal(t, []string{"photo-b", "photo-c"}, r.Attachments.Keys())
}

func TestDeletePhotos_SolePhotoEmptiesStore(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	r := New(nil)
	require.NoError(t, r.SetPhoto(clock, photoUpload("a.png", "aaa")))
	persist(r)
	name := r.PhotoKeys[0]
	for _, size := range [][2]int{{160, 160}, {328, 0}} {
		_, _, err := r.PhotoVariant(rotator{}, name, size[0], size[1])
		require.NoError(t, err)
	}
	require.Equal(t, 3, r.Attachments.Len())

	r.DeletePhotos([]string{name})

	assert.Equal(t, 0, r.Attachments.Len())
	assert.Empty(t, r.PhotoKeys)
	assert.Nil(t, r.PrimaryPhoto())
}

func TestPhotoVariant(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	r := New(nil)
	require.NoError(t, r.SetPhoto(clock, photoUpload("a", "abc")))
	name := r.PhotoKeys[0]

	v, created, err := r.PhotoVariant(rotator{}, name, 160, 120)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, name+"_160x120", v.Name)
	assert.Equal(t, name, v.ParentKey)

	again, created, err := r.PhotoVariant(rotator{}, name, 160, 120)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, v, again)

	w, _, err := r.PhotoVariant(rotator{}, name, 64, 0)
	require.NoError(t, err)
	assert.Equal(t, name+"_64", w.Name)

	_, _, err = r.PhotoVariant(rotator{}, "photo-missing", 1, 1)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestAudio(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}

	t.Run("nil before save", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetAudio(clock, amr("#!AMR")))
		assert.Nil(t, r.Audio())
	})

	t.Run("nil without audio", func(t *testing.T) {
		r := New(nil)
		persist(r)
		assert.Nil(t, r.Audio())
	})

	t.Run("original and alias after save", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetAudio(clock, amr("#!AMR")))
		persist(r)

		require.NotNil(t, r.Audio())
		assert.Equal(t, "audio-2010-02-20T120432", r.Audio().Name)
		assert.Equal(t, map[string]string{"original": "audio-2010-02-20T120432", "amr": "audio-2010-02-20T120432"}, r.AudioAttachments)
		assert.Same(t, r.Audio(), r.AudioVariant("amr"))
		assert.Nil(t, r.AudioVariant("mp3"))
		assert.Equal(t, "audio-2010-02-20T120432", r.Get(RecordedAudioField))
	})

	t.Run("dangling name", func(t *testing.T) {
		r := FromDocument(model.RecordDocument{ID: "rec-1", Revision: 1, AudioAttachments: map[string]string{"original": "audio-gone"}})
		assert.Nil(t, r.Audio())
	})

	t.Run("replacing keeps persisted recording by default", func(t *testing.T) {
		r := New(nil)
		require.NoError(t, r.SetAudio(clock, amr("one")))
		persist(r)
		first := r.Audio().Name

		require.NoError(t, r.SetAudio(&attachment.FixedClock{T: saveTime.Add(time.Second)}, amr("two")))
		assert.True(t, r.Attachments.Has(first))
		assert.Empty(t, r.Attachments.Removed())
	})

	t.Run("replacing purges when configured", func(t *testing.T) {
		r := New(nil)
		r.PurgeSupersededAudio = true
		require.NoError(t, r.SetAudio(clock, amr("one")))
		persist(r)
		first := r.Audio().Name

		require.NoError(t, r.SetAudio(&attachment.FixedClock{T: saveTime.Add(time.Second)}, amr("two")))
		assert.Equal(t, []string{first}, r.Attachments.Removed())
	})
}

type files map[string][]byte

func (f files) ReadFile(path string) ([]byte, error) {
	data, ok := f[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestAddAudioFile(t *testing.T) {
	r := New(nil)
	clock := &attachment.FixedClock{T: saveTime}
	require.NoError(t, r.AddAudioFile(clock, files{"/tmp/a.mp3": []byte("ID3")}, "/tmp/a.mp3", "audio/mpeg"))

	assert.Equal(t, map[string]string{
		"original": "audio-2010-02-20T120432",
		"mp3":      "audio-2010-02-20T120432",
	}, r.AudioAttachments)
	assert.Equal(t, "audio/mpeg", r.Attachments.Get("audio-2010-02-20T120432").ContentType)

	err := r.AddAudioFile(clock, files{}, "/tmp/gone.amr", "audio/amr")
	assert.ErrorContains(t, err, "/tmp/gone.amr")
	assert.NotContains(t, r.AudioAttachments, "amr")
}

func TestValidate(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	policy := attachment.Policy{MaxBytes: 4, PhotoTypes: []string{"image/png"}, AudioTypes: []string{"audio/amr"}}

	r := New(nil)
	require.NoError(t, r.SetPhoto(clock, attachment.BytesUpload{Filename: "x.gif", Type: "image/gif", Data: []byte("GIF8")}))
	require.NoError(t, r.SetAudio(clock, amr("too long")))

	err := r.Validate(policy)
	var errs attachment.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
	assert.ErrorIs(t, err, attachment.ErrUnsupportedFormat)
	assert.ErrorIs(t, err, attachment.ErrTooLarge)
	assert.False(t, r.Valid(policy))

	ok := New(nil)
	require.NoError(t, ok.SetPhoto(clock, photoUpload("a", "abc")))
	assert.True(t, ok.Valid(policy))
}

func TestChanges(t *testing.T) {
	r := FromDocument(model.RecordDocument{
		ID: "rec-1", Revision: 2,
		Fields:    map[string]any{"name": "Ada", "flag": false},
		PhotoKeys: []string{"photo-a"},
	})
	fields := append([]string{"name", CurrentPhotoKeyField}, audit.DefaultFields...)

	assert.Empty(t, r.Changes(fields))

	r.Set("name", " Ada ")
	r.Set("flag", true)
	r.Set("flag_message", "check family")
	changes := r.Changes(fields)

	assert.Equal(t, map[string]audit.Change{
		"flag":         {Kind: audit.ValueChange, From: false, To: true},
		"flag_message": {Kind: audit.ValueChange, From: nil, To: "check family"},
	}, changes)

	persist(r)
	assert.Empty(t, r.Changes(fields))
}

func TestDocumentRoundTrip(t *testing.T) {
	clock := &attachment.FixedClock{T: saveTime}
	r := New(map[string]any{"name": "Ada", "created_by": "rapidftr"})
	require.NoError(t, r.SetPhoto(clock, photoUpload("a", "abc")))
	r.Histories = []audit.Entry{{UserName: "rapidftr", Changes: map[string]audit.Change{audit.CreatedKey: {Kind: audit.Created}}}}

	doc := r.ToDocument()
	doc.Histories = audit.Prepend(doc.Histories, audit.Entry{UserName: "bob"})
	assert.Len(t, r.Histories, 1)

	back := FromDocument(doc)
	assert.Equal(t, "rapidftr", back.CreatedBy)
	assert.Equal(t, r.PhotoKeys, back.PhotoKeys)
	assert.Nil(t, back.Attachments.Get(r.PhotoKeys[0]).Data)
	assert.Equal(t, attachment.Digest([]byte("abc")), back.Attachments.Get(r.PhotoKeys[0]).Digest)
	assert.Len(t, back.Histories, 2)

	back.Fields["name"] = "changed"
	assert.Equal(t, "Ada", doc.Fields["name"])
}

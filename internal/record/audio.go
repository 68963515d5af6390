package record

import (
	"recordapi/internal/attachment"
)

const (
	audioPrefix     = "audio"
	originalVariant = "original"
)

// SetAudio stores an uploaded recording as "audio-<timestamp>" under the "original" variant and
// under the short alias of its content type (mp3, amr).
func (r *Record) SetAudio(clock attachment.Clock, up attachment.Upload) error {
	a, err := attachment.FromUpload(clock, up, audioPrefix)
	if err != nil {
		return err
	}
	r.putAudio(a, attachment.Alias(a.ContentType))
	return nil
}

// AddAudioFile ingests a recording straight from disk and registers it under the alias of
// mimeType.
func (r *Record) AddAudioFile(clock attachment.Clock, files attachment.FileReader, path, mimeType string) error {
	a, err := attachment.FromFile(clock, files, path, mimeType, audioPrefix)
	if err != nil {
		return err
	}
	r.putAudio(a, attachment.Alias(mimeType))
	return nil
}

func (r *Record) putAudio(a *attachment.Attachment, alias string) {
	if prev := r.AudioAttachments[originalVariant]; prev != "" && prev != a.Name {
		if p := r.Attachments.Get(prev); p != nil && (p.Pending || r.PurgeSupersededAudio) {
			r.Attachments.Remove(prev)
		}
	}
	r.Attachments.Put(a)
	r.AudioAttachments = map[string]string{originalVariant: a.Name}
	if alias != "" && alias != originalVariant {
		r.AudioAttachments[alias] = a.Name
	}
	r.pendingAudio = a.Name
}

// Audio returns the original recording, or nil when the record is unsaved, no audio was set,
// or the recorded name no longer resolves to an attachment.
func (r *Record) Audio() *attachment.Attachment {
	if r.IsNew() {
		return nil
	}
	name := r.AudioAttachments[originalVariant]
	if name == "" {
		return nil
	}
	return r.Attachments.Get(name)
}

// AudioVariant resolves a named variant such as "mp3".
func (r *Record) AudioVariant(variant string) *attachment.Attachment {
	if r.IsNew() {
		return nil
	}
	name := r.AudioAttachments[variant]
	if name == "" {
		return nil
	}
	return r.Attachments.Get(name)
}

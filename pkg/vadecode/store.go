package vadecode

// storedPicture is one decoded picture kept for reference or output.
type storedPicture struct {
	pic         *Picture
	frame       Frame
	decodeIndex int
}

// PictureStore is the codec DPB as seen by the core: decoded pictures by
// frame id. Which ids stay is decided upstream through Frame.Release.
type PictureStore struct {
	entries map[uint64]*storedPicture
}

// NewPictureStore creates an empty store.
func NewPictureStore() *PictureStore {
	return &PictureStore{entries: make(map[uint64]*storedPicture)}
}

// Insert stores a decoded picture, taking ownership of it. A picture already
// stored under the same id (the first field of a field pair) is freed.
func (s *PictureStore) Insert(frame Frame, pic *Picture, decodeIndex int) {
	if old, ok := s.entries[frame.ID]; ok && old.pic != pic {
		old.pic.Free()
	}
	frame.Output = nil
	frame.Release = nil
	s.entries[frame.ID] = &storedPicture{pic: pic, frame: frame, decodeIndex: decodeIndex}
}

// Lookup returns the picture stored for id.
func (s *PictureStore) Lookup(id uint64) (*Picture, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.pic, true
}

func (s *PictureStore) entry(id uint64) (*storedPicture, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Release frees the pictures stored for ids. Unknown ids are ignored.
func (s *PictureStore) Release(ids ...uint64) {
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			e.pic.Free()
			delete(s.entries, id)
		}
	}
}

// Clear frees every stored picture.
func (s *PictureStore) Clear() {
	for id, e := range s.entries {
		e.pic.Free()
		delete(s.entries, id)
	}
}

// Len returns the number of stored pictures.
func (s *PictureStore) Len() int { return len(s.entries) }

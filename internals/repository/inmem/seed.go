package inmem

import (
	academies "akademiku_backend/internals/seeds/academies"
)

// LoadSeedFile membaca file seed direktori lalu memasukkannya ke store.
func (s *Store) LoadSeedFile(path string) (int, error) {
	dir, err := academies.ReadDirectory(path)
	if err != nil {
		return 0, err
	}
	for _, a := range dir.Academies {
		s.SeedAcademy(a)
	}
	for _, c := range dir.Classes {
		s.SeedClass(c)
	}
	return len(dir.Academies) + len(dir.Classes), nil
}

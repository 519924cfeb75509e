package securestore

import "context"

type stagedOp struct {
	key    string
	value  string
	delete bool
}

// staging buffers writes over a base store. Reads see staged writes first.
type staging struct {
	base Store
	ops  []stagedOp
	view map[string]*string
}

func newStaging(base Store) *staging {
	return &staging{base: base, view: make(map[string]*string)}
}

func (s *staging) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.view[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	return s.base.Get(ctx, key)
}

func (s *staging) Set(_ context.Context, key, value string) error {
	v := value
	s.view[key] = &v
	s.ops = append(s.ops, stagedOp{key: key, value: value})
	return nil
}

func (s *staging) Delete(_ context.Context, key string) error {
	s.view[key] = nil
	s.ops = append(s.ops, stagedOp{key: key, delete: true})
	return nil
}

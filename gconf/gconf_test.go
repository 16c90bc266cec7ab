package gconf

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/weavetest/assert"
)

func TestSaveLoad(t *testing.T) {
	cases := map[string]struct {
		Conf        *myConfig
		WantSaveErr *errors.Error
	}{
		"valid": {
			Conf: &myConfig{Number: 42},
		},
		"negative number cannot be saved": {
			Conf:        &myConfig{Number: -1},
			WantSaveErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if err := Save(db, "mine", tc.Conf); !tc.WantSaveErr.Is(err) {
				t.Fatalf("unexpected save error: %s", err)
			}
			if tc.WantSaveErr != nil {
				return
			}
			var got myConfig
			assert.Nil(t, Load(db, "mine", &got))
			assert.Equal(t, *tc.Conf, got)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	db := store.MemStore()

	var conf myConfig
	err := Load(db, "mine", &conf)
	assert.IsErr(t, errors.ErrNotFound, err)

	conf.Number = 7
	assert.Nil(t, LoadOrDefault(db, "mine", &conf))
	assert.Equal(t, int64(7), conf.Number)
}

func TestInitConfig(t *testing.T) {
	cases := map[string]struct {
		Genesis string
		WantErr *errors.Error
		Want    int64
	}{
		"configuration present": {
			Genesis: `{"conf": {"mine": {"Number": 3}}}`,
			Want:    3,
		},
		"configuration missing": {
			Genesis: `{"conf": {"other": {"Number": 3}}}`,
			WantErr: errors.ErrNotFound,
		},
		"invalid configuration": {
			Genesis: `{"conf": {"mine": {"Number": -4}}}`,
			WantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts quorum.Options
			if err := json.Unmarshal([]byte(tc.Genesis), &opts); err != nil {
				t.Fatalf("cannot unmarshal genesis: %s", err)
			}
			db := store.MemStore()
			var conf myConfig
			if err := InitConfig(db, opts, "mine", &conf); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}
			var got myConfig
			assert.Nil(t, Load(db, "mine", &got))
			assert.Equal(t, tc.Want, got.Number)
		})
	}
}

type myConfig struct {
	Number int64
}

func (c *myConfig) Validate() error {
	if c.Number < 0 {
		return errors.Wrap(errors.ErrInput, "negative number")
	}
	return nil
}

func (c *myConfig) Marshal() ([]byte, error) {
	return []byte(strconv.FormatInt(c.Number, 10)), nil
}

func (c *myConfig) Unmarshal(raw []byte) error {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	c.Number = n
	return err
}

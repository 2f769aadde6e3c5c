package client

import (
	"reflect"
	"testing"

	"github.com/naveenspark/haven/pkg/domain"
)

func TestDecodeListEnvelopeShapes(t *testing.T) {
	items := `[{"id":1,"message":"a","read_at":null},{"id":2,"data":{"message":"b"},"read_at":null}]`
	shapes := map[string]string{
		"bare":      items,
		"data":      `{"data":` + items + `}`,
		"paginated": `{"data":{"current_page":1,"data":` + items + `,"last_page":1}}`,
	}

	want, _, err := decodeList[domain.Notification]([]byte(items))
	if err != nil {
		t.Fatalf("decode bare: %v", err)
	}
	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			got, _, err := decodeList[domain.Notification]([]byte(body))
			if err != nil {
				t.Fatalf("decodeList() error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("decodeList() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDecodeListNull(t *testing.T) {
	for _, body := range []string{`null`, `{"data":null}`, ``} {
		got, _, err := decodeList[domain.Notification]([]byte(body))
		if err != nil {
			t.Errorf("decodeList(%q) error: %v", body, err)
		}
		if len(got) != 0 {
			t.Errorf("decodeList(%q) = %d items, want 0", body, len(got))
		}
	}
}

func TestDecodeListRejectsMalformed(t *testing.T) {
	for _, body := range []string{`"nope"`, `{"items":[]}`, `{"data":"x"}`, `{`} {
		_, _, err := decodeList[domain.Notification]([]byte(body))
		if err == nil {
			t.Errorf("decodeList(%q) expected error", body)
			continue
		}
		if KindOf(err) != KindValidation {
			t.Errorf("decodeList(%q) kind = %v, want validation", body, KindOf(err))
		}
	}
}

func TestDecodeListSkipsBadElements(t *testing.T) {
	body := `{"data":[{"type":"article","content_id":1},{"type":"podcast","content_id":2},{"type":"video"},{"type":"exercise","content_id":3}]}`
	got, skipped, err := decodeList[domain.Bookmark]([]byte(body))
	if err != nil {
		t.Fatalf("decodeList() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d bookmarks, want 2", len(got))
	}
	if got[0].ContentType != domain.ContentArticle || got[1].ContentType != domain.ContentExercise {
		t.Errorf("kept %s and %s, want article and exercise", got[0].ContentType, got[1].ContentType)
	}
	if len(skipped) != 2 {
		t.Errorf("skipped %d, want 2", len(skipped))
	}
}

func TestDecodeObjectUnwrapsData(t *testing.T) {
	var u domain.User
	if err := decodeObject([]byte(`{"data":{"id":1,"name":"Ana"}}`), &u); err != nil {
		t.Fatalf("decodeObject() error: %v", err)
	}
	if u.Name != "Ana" {
		t.Errorf("Name = %q, want Ana", u.Name)
	}
	var bare domain.User
	if err := decodeObject([]byte(`{"id":1,"name":"Ana","data":"ignored"}`), &bare); err != nil {
		t.Fatalf("decodeObject() error: %v", err)
	}
	if bare.Name != "Ana" {
		t.Errorf("Name = %q, want Ana", bare.Name)
	}
}

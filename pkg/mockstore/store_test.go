package mockstore

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

// =============================================================================
// Helpers
// =============================================================================

func newUserRegistry(calls *int) *Registry {
	r := NewRegistry()
	r.MustRegister("User", func(ctx GenerateContext) Record {
		if calls != nil {
			*calls++
		}
		return Record{
			"id":    "1",
			"name":  "New User",
			"email": nil,
		}
	})
	return r
}

// fakeSchema is a map-backed SchemaDescriptor.
type fakeSchema map[string][]FieldInfo

func (f fakeSchema) ObjectFields(typeName string) ([]FieldInfo, bool) {
	fields, ok := f[typeName]
	return fields, ok
}

var userSchema = fakeSchema{
	"User": {
		{Name: "id", TypeName: "String", Kind: KindScalar, NonNull: true},
		{Name: "name", TypeName: "String", Kind: KindScalar, NonNull: true},
		{Name: "email", TypeName: "String", Kind: KindScalar},
	},
	"Post": {
		{Name: "id", TypeName: "ID", Kind: KindScalar, NonNull: true},
		{Name: "title", TypeName: "String", Kind: KindScalar, NonNull: true},
		{Name: "views", TypeName: "Int", Kind: KindScalar},
		{Name: "rating", TypeName: "Float", Kind: KindScalar},
		{Name: "published", TypeName: "Boolean", Kind: KindScalar},
		{Name: "status", TypeName: "Status", Kind: KindEnum, EnumValues: []string{"DRAFT", "LIVE"}},
		{Name: "tags", TypeName: "String", Kind: KindScalar, List: true},
		{Name: "author", TypeName: "User", Kind: KindObject},
		{Name: "__typename", TypeName: "String", Kind: KindScalar},
	},
}

// =============================================================================
// Store Tests
// =============================================================================

func TestNew(t *testing.T) {
	store := New()
	if store == nil {
		t.Fatal("New returned nil")
	}
	if store.records == nil {
		t.Error("records map not initialized")
	}
	if store.Registry() == nil {
		t.Error("registry not initialized")
	}
	if store.KeyField() != DefaultKeyField {
		t.Errorf("KeyField() = %q, want %q", store.KeyField(), DefaultKeyField)
	}
}

func TestStore_Get_GeneratesOnFirstAccess(t *testing.T) {
	calls := 0
	store := New(WithRegistry(newUserRegistry(&calls)))

	user, err := store.Get("User", "1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	want := Record{"id": "1", "name": "New User", "email": nil}
	if !reflect.DeepEqual(user, want) {
		t.Errorf("Get() = %v, want %v", user, want)
	}
	if calls != 1 {
		t.Errorf("generator called %d times, want 1", calls)
	}

	// Second read must not re-run the generator.
	again, err := store.Get("User", "1")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if !reflect.DeepEqual(again, user) {
		t.Errorf("second Get() = %v, want %v", again, user)
	}
	if calls != 1 {
		t.Errorf("generator called %d times after second read, want 1", calls)
	}
}

func TestStore_Get_AdoptsRequestedID(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	user, err := store.Get("User", "42")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user["id"] != "42" {
		t.Errorf("id = %v, want 42", user["id"])
	}
	if !store.Has("User", "42") {
		t.Error("record should be stored under the requested id")
	}
	if store.Has("User", "1") {
		t.Error("record should not be stored under the generator's id")
	}
}

func TestStore_Get_UnknownType(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	_, err := store.Get("Unregistered", "x")
	var unknown *UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Get() error = %v, want *UnknownTypeError", err)
	}
	if unknown.TypeName != "Unregistered" {
		t.Errorf("TypeName = %q, want Unregistered", unknown.TypeName)
	}
	if store.Has("Unregistered", "x") {
		t.Error("failed generation must not store a record")
	}
}

func TestStore_Get_ReturnsCopy(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	user, _ := store.Get("User", "1")
	user["name"] = "Mutated"

	again, _ := store.Get("User", "1")
	if again["name"] != "New User" {
		t.Errorf("caller mutation leaked into store: name = %v", again["name"])
	}
}

func TestStore_Set_MergesFields(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	if _, err := store.Get("User", "1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	err := store.Set("User", "1", Record{"name": "Updated User", "email": "updated@user.com"})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	user, _ := store.Get("User", "1")
	want := Record{"id": "1", "name": "Updated User", "email": "updated@user.com"}
	if !reflect.DeepEqual(user, want) {
		t.Errorf("Get() after Set = %v, want %v", user, want)
	}
}

func TestStore_Set_MergeNotReplace(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	if err := store.Set("User", "1", Record{"email": "x@y.com"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	user, _ := store.Get("User", "1")
	if user["name"] != "New User" {
		t.Errorf("name = %v, want untouched 'New User'", user["name"])
	}
	if user["id"] != "1" {
		t.Errorf("id = %v, want untouched '1'", user["id"])
	}
	if user["email"] != "x@y.com" {
		t.Errorf("email = %v, want x@y.com", user["email"])
	}
}

func TestStore_Set_KeyFieldIsStable(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	if err := store.Set("User", "1", Record{"id": "2", "name": "Renamed"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	user, _ := store.Get("User", "1")
	if user["id"] != "1" {
		t.Errorf("id = %v, want 1", user["id"])
	}
	if user["name"] != "Renamed" {
		t.Errorf("name = %v, want Renamed", user["name"])
	}
}

func TestStore_Set_UnknownType(t *testing.T) {
	store := New()

	err := store.Set("Ghost", "1", Record{"name": "boo"})
	var unknown *UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Set() error = %v, want *UnknownTypeError", err)
	}
}

func TestStore_Set_CopiesInput(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	tags := []interface{}{"a"}
	if err := store.Set("User", "1", Record{"tags": tags}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	tags[0] = "changed"

	user, _ := store.Get("User", "1")
	got := user["tags"].([]interface{})
	if got[0] != "a" {
		t.Errorf("tags[0] = %v, want a", got[0])
	}
}

func TestStore_Has(t *testing.T) {
	calls := 0
	store := New(WithRegistry(newUserRegistry(&calls)))

	if store.Has("User", "1") {
		t.Error("Has() = true before any access")
	}
	if calls != 0 {
		t.Errorf("Has() triggered generation (%d calls)", calls)
	}

	_, _ = store.Get("User", "1")
	if !store.Has("User", "1") {
		t.Error("Has() = false after Get")
	}
}

func TestStore_Create(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))

	t.Run("generates id", func(t *testing.T) {
		rec, err := store.Create("User", Record{"name": "Fresh"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		id, _ := rec["id"].(string)
		if len(id) != 36 {
			t.Errorf("generated id = %q, want a UUID", id)
		}
		if rec["name"] != "Fresh" {
			t.Errorf("name = %v, want Fresh", rec["name"])
		}
		if !store.Has("User", id) {
			t.Error("created record not stored under generated id")
		}
	})

	t.Run("uses supplied id", func(t *testing.T) {
		rec, err := store.Create("User", Record{"id": "u-7", "email": "u7@example.com"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if rec["id"] != "u-7" {
			t.Errorf("id = %v, want u-7", rec["id"])
		}
		if rec["name"] != "New User" {
			t.Errorf("name = %v, want generator default", rec["name"])
		}
	})

	t.Run("existing id merges", func(t *testing.T) {
		if err := store.Set("User", "u-8", Record{"name": "Kept", "email": "old@example.com"}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		rec, err := store.Create("User", Record{"id": "u-8", "email": "new@example.com"})
		if err != nil {
			t.Fatalf("Create() on existing id error = %v", err)
		}
		if rec["name"] != "Kept" || rec["email"] != "new@example.com" {
			t.Errorf("Create() on existing id = %v, want merged record", rec)
		}
		if store.Len() != 3 {
			t.Errorf("Len() = %d, want 3", store.Len())
		}
	})
}

func TestStore_Delete(t *testing.T) {
	store := New(WithRegistry(newUserRegistry(nil)))
	_, _ = store.Get("User", "1")

	if err := store.Delete("User", "1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Has("User", "1") {
		t.Error("record still present after Delete")
	}

	err := store.Delete("User", "1")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("second Delete() error = %v, want *NotFoundError", err)
	}
}

func TestStore_Reset(t *testing.T) {
	calls := 0
	store := New(WithRegistry(newUserRegistry(&calls)))

	_, _ = store.Get("User", "1")
	_ = store.Set("User", "1", Record{"name": "Updated User"})
	_, _ = store.Get("User", "2")

	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}

	store.Reset()

	if store.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", store.Len())
	}
	if store.Has("User", "1") {
		t.Error("Has() = true after Reset")
	}

	// Generators survive a reset.
	user, err := store.Get("User", "1")
	if err != nil {
		t.Fatalf("Get() after Reset error = %v", err)
	}
	if user["name"] != "New User" {
		t.Errorf("name after Reset = %v, want New User", user["name"])
	}
	if calls != 3 {
		t.Errorf("generator calls = %d, want 3", calls)
	}
}

func TestStore_KeysAndOverview(t *testing.T) {
	r := newUserRegistry(nil)
	r.MustRegister("Post", Static(Record{"title": "Hello"}))
	store := New(WithRegistry(r))

	_, _ = store.Get("User", "2")
	_, _ = store.Get("Post", "p1")
	_, _ = store.Get("User", "1")

	want := []Key{
		{TypeName: "Post", ID: "p1"},
		{TypeName: "User", ID: "1"},
		{TypeName: "User", ID: "2"},
	}
	if got := store.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	ov := store.Overview()
	if ov.Records != 3 {
		t.Errorf("Overview.Records = %d, want 3", ov.Records)
	}
	if ov.Types["User"] != 2 || ov.Types["Post"] != 1 {
		t.Errorf("Overview.Types = %v", ov.Types)
	}
	if !reflect.DeepEqual(ov.TypeList, []string{"Post", "User"}) {
		t.Errorf("Overview.TypeList = %v", ov.TypeList)
	}
}

func TestStore_WithKeyField(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("Account", Static(Record{"owner": "ops"}))
	store := New(WithRegistry(r), WithKeyField("accountId"))

	acct, err := store.Get("Account", "a1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if acct["accountId"] != "a1" {
		t.Errorf("accountId = %v, want a1", acct["accountId"])
	}
	if _, ok := acct["id"]; ok {
		t.Error("default key field should not be set when a custom one is configured")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	r := NewRegistry()
	r.MustRegister("User", func(ctx GenerateContext) Record {
		mu.Lock()
		calls++
		mu.Unlock()
		return Record{"name": "New User"}
	})
	store := New(WithRegistry(r))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = store.Get("User", "1")
			} else {
				_ = store.Set("User", "1", Record{"email": "x@y.com"})
			}
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("generator ran %d times under concurrent access, want 1", calls)
	}
}

// =============================================================================
// Field Policy Tests
// =============================================================================

func TestParseFieldPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    FieldPolicy
		wantErr bool
	}{
		{"", FieldPolicyNull, false},
		{"null", FieldPolicyNull, false},
		{"NULL", FieldPolicyNull, false},
		{"default", FieldPolicyDefault, false},
		{"error", FieldPolicyError, false},
		{"strict", FieldPolicyNull, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFieldPolicy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFieldPolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFieldPolicy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStore_FieldPolicyNull(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("User", Static(Record{"name": "Partial"}))
	store := New(WithRegistry(r), WithSchema(userSchema))

	user, err := store.Get("User", "1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	email, present := user["email"]
	if !present || email != nil {
		t.Errorf("email = %v (present=%v), want explicit nil", email, present)
	}
}

func TestStore_FieldPolicyDefault(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("Post", Static(Record{"title": "Given"}))
	r.MustRegister("User", Static(Record{"name": "Author"}))
	store := New(WithRegistry(r), WithSchema(userSchema), WithFieldPolicy(FieldPolicyDefault))

	post, err := store.Get("Post", "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if post["title"] != "Given" {
		t.Errorf("title = %v, generator value must win", post["title"])
	}
	if post["id"] != "p1" {
		t.Errorf("id = %v, want p1", post["id"])
	}
	if post["views"] != DefaultInt {
		t.Errorf("views = %v, want %v", post["views"], DefaultInt)
	}
	if post["rating"] != DefaultFloat {
		t.Errorf("rating = %v, want %v", post["rating"], DefaultFloat)
	}
	if post["published"] != true {
		t.Errorf("published = %v, want true", post["published"])
	}
	if post["status"] != "DRAFT" {
		t.Errorf("status = %v, want first enum value", post["status"])
	}
	tags, ok := post["tags"].([]interface{})
	if !ok || len(tags) != 2 || tags[0] != DefaultString {
		t.Errorf("tags = %v, want two default strings", post["tags"])
	}
	ref, ok := post["author"].(Ref)
	if !ok || ref.TypeName != "User" || ref.ID == "" {
		t.Errorf("author = %v, want Ref to User", post["author"])
	}
	if _, ok := post["__typename"]; ok {
		t.Error("introspection fields must not be completed")
	}
}

func TestStore_FieldPolicyError(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("User", Static(Record{"name": "No Email"}))
	store := New(WithRegistry(r), WithSchema(userSchema), WithFieldPolicy(FieldPolicyError))

	_, err := store.Get("User", "1")
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("Get() error = %v, want *MissingFieldError", err)
	}
	if missing.Field != "email" {
		t.Errorf("Field = %q, want email", missing.Field)
	}
	if store.Has("User", "1") {
		t.Error("record must not be stored when completion fails")
	}
}

func TestStore_AutoMock(t *testing.T) {
	store := New(WithSchema(userSchema), WithAutoMock(true))

	post, err := store.Get("Post", "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if post["title"] != DefaultString {
		t.Errorf("title = %v, want %q", post["title"], DefaultString)
	}
	if !store.CanGenerate("User") {
		t.Error("CanGenerate(User) = false with autoMock")
	}

	// Types unknown to both registry and schema still fail.
	_, err = store.Get("Unregistered", "x")
	var unknown *UnknownTypeError
	if !errors.As(err, &unknown) {
		t.Errorf("Get(Unregistered) error = %v, want *UnknownTypeError", err)
	}
}

// =============================================================================
// Observer Tests
// =============================================================================

func TestMetricsObserver(t *testing.T) {
	obs := NewMetricsObserver()
	store := New(WithRegistry(newUserRegistry(nil)), WithObserver(obs))

	_, _ = store.Get("User", "1")
	_, _ = store.Get("User", "1")
	_ = store.Set("User", "1", Record{"name": "x"})
	_, _ = store.Get("Nope", "1")
	_ = store.Delete("User", "1")
	store.Reset()

	snap := obs.Snapshot()
	if snap.GenerateCount != 1 {
		t.Errorf("GenerateCount = %d, want 1", snap.GenerateCount)
	}
	if snap.MissCount != 1 || snap.HitCount != 1 {
		t.Errorf("MissCount/HitCount = %d/%d, want 1/1", snap.MissCount, snap.HitCount)
	}
	if snap.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", snap.Reads())
	}
	if snap.SetCount != 1 {
		t.Errorf("SetCount = %d, want 1", snap.SetCount)
	}
	if snap.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", snap.ErrorCount)
	}
	if snap.DeleteCount != 1 || snap.ResetCount != 1 {
		t.Errorf("DeleteCount/ResetCount = %d/%d, want 1/1", snap.DeleteCount, snap.ResetCount)
	}
}

func TestMetricsObserver_ConcurrentFirstReads(t *testing.T) {
	obs := NewMetricsObserver()
	store := New(WithRegistry(newUserRegistry(nil)), WithObserver(obs))

	const readers = 64
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _ = store.Get("User", "1")
		}()
	}
	close(start)
	wg.Wait()

	snap := obs.Snapshot()
	if snap.GenerateCount != 1 {
		t.Errorf("GenerateCount = %d, want 1", snap.GenerateCount)
	}
	if snap.MissCount != snap.GenerateCount {
		t.Errorf("MissCount = %d, want one miss per generation (%d)", snap.MissCount, snap.GenerateCount)
	}
	if snap.HitCount != readers-1 {
		t.Errorf("HitCount = %d, want %d", snap.HitCount, readers-1)
	}
}

package registry

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLookupCaseInsensitive проверяет регистронезависимый поиск
func TestLookupCaseInsensitive(t *testing.T) {
	r := Default()
	for _, name := range []string{"user", "USER", "User"} {
		if sigs := r.LookupAll(name, false); len(sigs) == 0 {
			t.Errorf("Expected lookup %q to succeed", name)
		}
	}
	if sigs := r.LookupAll("no_such_command", false); len(sigs) != 0 {
		t.Errorf("Expected empty result, got %d", len(sigs))
	}
}

// TestLookupAlias проверяет поиск по псевдониму
func TestLookupAlias(t *testing.T) {
	r := Default()
	sigs := r.LookupAll("bot", false)
	if len(sigs) == 0 {
		t.Fatal("Expected alias bot to resolve")
	}
	if sigs[0].Name != "char" {
		t.Errorf("Expected alias to resolve to char, got %q", sigs[0].Name)
	}
}

// TestPrefixSuppresssAliases: префиксный вызов не резолвит псевдонимы
func TestPrefixSuppressesAliases(t *testing.T) {
	r := New()
	r.Add(&Signature{Name: "random", Params: req("A"), Variadic: true, Aliases: []string{"rnd"}})
	r.Add(&Signature{Name: "random", Prefix: true, Params: req("A,B")})

	if sigs := r.LookupAll("rnd", false); len(sigs) != 1 {
		t.Errorf("Expected alias to resolve on plain call, got %d", len(sigs))
	}
	if sigs := r.LookupAll("rnd", true); len(sigs) != 0 {
		t.Errorf("Expected alias suppressed on prefix call, got %d", len(sigs))
	}
	// первичное имя доступно в обоих режимах
	if sigs := r.LookupAll("random", true); len(sigs) != 2 {
		t.Errorf("Expected primary lookup to see both overloads, got %d", len(sigs))
	}
}

// TestAccepts проверяет арность: required/optional/variadic
func TestAccepts(t *testing.T) {
	fixed := &Signature{Name: "replace", Params: req("TEXT", "FROM", "TO")}
	withOpt := &Signature{Name: "x", Params: []ParamSpec{{Name: "A"}, opt("B")}}
	variadic := &Signature{Name: "and", Params: req("A", "B"), Variadic: true}

	tests := []struct {
		sig      *Signature
		provided int
		want     bool
	}{
		{fixed, 3, true},
		{fixed, 2, false},
		{fixed, 4, false},
		{withOpt, 1, true},
		{withOpt, 2, true},
		{withOpt, 0, false},
		{withOpt, 3, false},
		{variadic, 2, true},
		{variadic, 7, true}, // верхней границы у вариадиков нет
		{variadic, 1, false},
	}
	for _, tt := range tests {
		if got := tt.sig.Accepts(tt.provided); got != tt.want {
			t.Errorf("%s.Accepts(%d): expected %v, got %v", tt.sig.Name, tt.provided, tt.want, got)
		}
	}
}

// TestCheckArityOverloads: использование валидно, если подходит любая перегрузка
func TestCheckArityOverloads(t *testing.T) {
	r := Default()
	slot := r.LookupAll("slot", false)
	if len(slot) != 2 {
		t.Fatalf("Expected 2 slot overloads, got %d", len(slot))
	}
	if res := CheckArity(slot, 0); !res.OK {
		t.Error("Expected bare slot to be accepted")
	}
	if res := CheckArity(slot, 1); !res.OK {
		t.Error("Expected slot::A to be accepted")
	}
	if res := CheckArity(slot, 2); res.OK {
		t.Error("Expected slot with 2 params to be rejected")
	}
}

// TestRender проверяет строки сигнатур в сообщениях
func TestRender(t *testing.T) {
	tests := []struct {
		sig  Signature
		want string
	}{
		{Signature{Name: "replace", Params: req("TEXT", "FROM", "TO")}, "{{replace::TEXT::FROM::TO}}"},
		{Signature{Name: "slot"}, "{{slot}}"},
		{Signature{Name: "x", Params: []ParamSpec{{Name: "A"}, opt("B")}}, "{{x::A::B?}}"},
		{Signature{Name: "and", Params: req("A", "B"), Variadic: true}, "{{and::A::B::...}}"},
		{Signature{Name: "random", Prefix: true, Params: req("A,B")}, "{{random:A,B}}"},
		{Signature{Name: "if", Block: true, Params: req("CONDITION")}, "{{#if CONDITION}}"},
	}
	for _, tt := range tests {
		if got := tt.sig.Render(); got != tt.want {
			t.Errorf("Render: expected %s, got %s", tt.want, got)
		}
	}
}

// TestDeprecatedBuiltins: таблица несёт маркеры устаревания
func TestDeprecatedBuiltins(t *testing.T) {
	r := Default()
	sigs := r.LookupAll("when", false)
	if len(sigs) == 0 || sigs[0].Deprecated == nil {
		t.Fatal("Expected #when to be deprecated")
	}
	if sigs[0].Deprecated.Replacement != "#if" {
		t.Errorf("Expected replacement #if, got %q", sigs[0].Deprecated.Replacement)
	}
}

// TestLoadConfig проверяет разбор расширений из TOML
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := `
[limits]
max-diagnostics = 50
max-nesting = 6

[[command]]
name = "greet"
aliases = ["hello"]
params = ["NAME", "STYLE?"]
doc = "custom greeting"

[[command]]
name = "oldcmd"
deprecated = "use newcmd"
replacement = "newcmd"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Limits.MaxDiagnostics != 50 || cfg.Limits.MaxNesting != 6 {
		t.Errorf("Unexpected limits: %+v", cfg.Limits)
	}
	if len(cfg.Commands) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(cfg.Commands))
	}

	greet := cfg.Commands[0]
	if greet.Name != "greet" || len(greet.Params) != 2 {
		t.Fatalf("Unexpected greet signature: %+v", greet)
	}
	if !greet.Params[1].Optional || greet.Params[1].Name != "STYLE" {
		t.Errorf("Expected optional STYLE param, got %+v", greet.Params[1])
	}

	old := cfg.Commands[1]
	if old.Deprecated == nil || old.Deprecated.Replacement != "newcmd" {
		t.Errorf("Expected deprecation marker, got %+v", old.Deprecated)
	}

	// реестр принимает расширения
	r := Default()
	r.Extend(cfg.Commands)
	if sigs := r.LookupAll("hello", false); len(sigs) != 1 {
		t.Errorf("Expected extension alias to resolve, got %d", len(sigs))
	}
}

// TestFindConfig проверяет поиск конфига вверх по дереву
func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfgPath := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	found, ok, err := FindConfig(nested)
	if err != nil || !ok {
		t.Fatalf("FindConfig: ok=%v err=%v", ok, err)
	}
	if found != cfgPath {
		t.Errorf("Expected %s, got %s", cfgPath, found)
	}
}

package registry

// Default returns the built-in CBS command table. Таблица статична и
// read-only; расширения из cbslint.toml добавляются поверх через Extend.
func Default() *Registry {
	r := New()
	for i := range builtins {
		r.Add(&builtins[i])
	}
	return r
}

func req(names ...string) []ParamSpec {
	out := make([]ParamSpec, 0, len(names))
	for _, n := range names {
		out = append(out, ParamSpec{Name: n})
	}
	return out
}

func opt(name string) ParamSpec {
	return ParamSpec{Name: name, Optional: true}
}

// builtins — сигнатуры встроенных команд CBS. Порядок групп: подстановки
// без параметров, строковые, логика/арифметика, случайность, переменные,
// ассеты, блоки.
var builtins = []Signature{
	// Подстановки без параметров.
	{Name: "user", Doc: "Name of the current persona."},
	{Name: "char", Aliases: []string{"bot"}, Doc: "Name of the current character."},
	{Name: "description", Doc: "Character description field."},
	{Name: "personality", Doc: "Character personality field."},
	{Name: "scenario", Doc: "Character scenario field."},
	{Name: "persona", Doc: "Persona description text."},
	{Name: "lorebook", Doc: "Active lorebook entries."},
	{Name: "firstmessage", Aliases: []string{"first_msg"}, Doc: "Character's first message."},
	{Name: "lastmessage", Aliases: []string{"previouscharchat"}, Doc: "Last message in the chat."},
	{Name: "messagecount", Doc: "Number of messages in the chat."},
	{Name: "msgcount", Deprecated: &Deprecation{Message: "msgcount is deprecated", Replacement: "messagecount"}},
	{Name: "chatindex", Doc: "Index of the current chat."},
	{Name: "maxcontext", Doc: "Maximum context size of the current model."},
	{Name: "model", Doc: "Identifier of the current model."},
	{Name: "jb", Aliases: []string{"jailbreak"}, Doc: "Jailbreak prompt text."},
	{Name: "jbtoggled", Doc: "Whether the jailbreak toggle is on."},
	{Name: "ujb", Aliases: []string{"globalnote", "systemnote"}, Doc: "Global note text."},
	{Name: "time", Doc: "Current time (HH:MM:SS)."},
	{Name: "date", Doc: "Current date (YYYY-MM-DD)."},
	{Name: "unixtime", Doc: "Current unix timestamp in seconds."},
	{Name: "isotime", Doc: "Current time in UTC ISO form."},
	{Name: "idle_duration", Doc: "Time since the last user message."},
	{Name: "br", Aliases: []string{"newline"}, Doc: "Line break."},
	{Name: "cbr", Aliases: []string{"cnewline"}, Doc: "Escaped line break that survives trimming."},
	{Name: "blank", Aliases: []string{"none"}, Doc: "Empty string."},
	{Name: "emotionlist", Doc: "Names of available emotion images."},
	{Name: "assetlist", Doc: "Names of available additional assets."},
	{Name: "prefill_supported", Doc: "Whether the model supports prefill."},

	// Строковые операции.
	{Name: "trim", Params: req("TEXT"), Doc: "Trims surrounding whitespace."},
	{Name: "lower", Aliases: []string{"lowercase"}, Params: req("TEXT"), Doc: "Lowercases the text."},
	{Name: "upper", Aliases: []string{"uppercase"}, Params: req("TEXT"), Doc: "Uppercases the text."},
	{Name: "capitalize", Params: req("TEXT"), Doc: "Capitalizes the first letter."},
	{Name: "reverse", Params: req("TEXT"), Doc: "Reverses the text."},
	{Name: "length", Params: req("TEXT"), Doc: "Length of the text in characters."},
	{Name: "replace", Params: req("TEXT", "FROM", "TO"), Doc: "Replaces every occurrence of FROM with TO."},
	{Name: "split", Params: req("TEXT", "SEPARATOR"), Doc: "Splits TEXT into an array."},
	{Name: "join", Params: req("SEPARATOR", "A"), Variadic: true, Doc: "Joins the remaining parameters with SEPARATOR."},
	{Name: "startswith", Params: req("TEXT", "PREFIX"), Doc: "Whether TEXT starts with PREFIX."},
	{Name: "endswith", Params: req("TEXT", "SUFFIX"), Doc: "Whether TEXT ends with SUFFIX."},
	{Name: "contains", Params: req("TEXT", "NEEDLE"), Doc: "Whether TEXT contains NEEDLE."},
	{Name: "tonumber", Params: req("TEXT"), Doc: "Strips everything but digits and dots."},
	{Name: "comment", Params: req("TEXT"), Doc: "Displayed but never sent to the model."},
	{Name: "hidden_key", Params: req("KEY"), Doc: "Invisible lorebook activation key."},

	// Логика и арифметика.
	{Name: "calc", Params: req("EXPRESSION"), Doc: "Evaluates an arithmetic expression."},
	{Name: "equal", Params: req("A", "B"), Doc: "Whether A equals B."},
	{Name: "not_equal", Aliases: []string{"notequal"}, Params: req("A", "B"), Doc: "Whether A differs from B."},
	{Name: "greater", Params: req("A", "B"), Doc: "Whether A > B numerically."},
	{Name: "less", Params: req("A", "B"), Doc: "Whether A < B numerically."},
	{Name: "greater_equal", Params: req("A", "B"), Doc: "Whether A >= B numerically."},
	{Name: "less_equal", Params: req("A", "B"), Doc: "Whether A <= B numerically."},
	{Name: "and", Params: req("A", "B"), Variadic: true, Doc: "Logical AND over all parameters."},
	{Name: "or", Params: req("A", "B"), Variadic: true, Doc: "Logical OR over all parameters."},
	{Name: "not", Params: req("A"), Doc: "Logical negation."},
	{Name: "all", Params: req("A"), Variadic: true, Doc: "Whether every parameter is truthy."},
	{Name: "any", Params: req("A"), Variadic: true, Doc: "Whether at least one parameter is truthy."},
	{Name: "round", Params: req("A"), Doc: "Rounds to the nearest integer."},
	{Name: "floor", Params: req("A"), Doc: "Rounds down."},
	{Name: "ceil", Params: req("A"), Doc: "Rounds up."},
	{Name: "abs", Params: req("A"), Doc: "Absolute value."},
	{Name: "remaind", Params: req("A", "B"), Doc: "Remainder of A divided by B."},
	{Name: "pow", Params: req("A", "B"), Doc: "A raised to the power B."},
	{Name: "min", Params: req("A"), Variadic: true, Doc: "Smallest of the parameters."},
	{Name: "max", Params: req("A"), Variadic: true, Doc: "Largest of the parameters."},
	{Name: "sum", Params: req("A"), Variadic: true, Doc: "Sum of the parameters."},
	{Name: "average", Params: req("A"), Variadic: true, Doc: "Arithmetic mean of the parameters."},

	// Случайность. У random/pick/roll есть префиксные перегрузки; алиасы
	// на префиксные формы не резолвятся при обычном вызове.
	{Name: "random", Params: req("A"), Variadic: true, Doc: "Uniformly random parameter."},
	{Name: "random", Prefix: true, Params: req("A,B"), Doc: "Comma-separated prefix form of random."},
	{Name: "pick", Aliases: []string{"randomchoice"}, Params: req("A"), Variadic: true, Doc: "Random parameter, stable within one message."},
	{Name: "pick", Prefix: true, Params: req("A,B"), Doc: "Comma-separated prefix form of pick."},
	{Name: "roll", Params: req("MAX"), Doc: "Random integer in [1, MAX]."},
	{Name: "roll", Prefix: true, Params: req("dN"), Doc: "Dice notation form, e.g. {{roll:d20}}."},
	{Name: "rollp", Params: req("MAX"), Doc: "Persistent roll, stable within one message."},
	{Name: "dice", Deprecated: &Deprecation{Message: "dice is deprecated", Replacement: "roll"}, Params: req("MAX")},

	// Переменные.
	{Name: "setvar", Params: req("NAME", "VALUE"), Doc: "Stores a chat-scoped variable."},
	{Name: "settempvar", Aliases: []string{"setlocalvar"}, Params: req("NAME", "VALUE"), Doc: "Stores a message-scoped variable."},
	{Name: "getvar", Params: req("NAME"), Doc: "Reads a chat-scoped variable."},
	{Name: "gettempvar", Aliases: []string{"getlocalvar"}, Params: req("NAME"), Doc: "Reads a message-scoped variable."},
	{Name: "getglobalvar", Params: req("NAME"), Doc: "Reads a globally injected variable."},
	{Name: "addvar", Params: req("NAME", "DELTA"), Doc: "Adds DELTA to a numeric chat variable."},
	{Name: "tempvar", Deprecated: &Deprecation{Message: "tempvar is deprecated", Replacement: "settempvar"}, Params: req("NAME", "VALUE")},

	// Ассеты и вывод.
	{Name: "asset", Params: req("NAME"), Doc: "Embeds an additional asset."},
	{Name: "emotion", Params: req("NAME"), Doc: "Embeds an emotion image."},
	{Name: "image", Params: req("NAME"), Doc: "Embeds an image asset."},
	{Name: "audio", Params: req("NAME"), Doc: "Embeds an audio asset."},
	{Name: "video", Params: req("NAME"), Doc: "Embeds a video asset."},
	{Name: "bg", Params: req("NAME"), Doc: "Sets the background image."},
	{Name: "datetimeformat", Params: req("FORMAT"), Doc: "Formats the current time."},
	{Name: "datetimeformat", Prefix: true, Params: req("FORMAT"), Doc: "Prefix form of datetimeformat."},
	{Name: "slot", Doc: "Inserted loop value inside {{#each}}."},
	{Name: "slot", Params: req("A"), Doc: "Named loop slot inside {{#each}}."},

	// Блоки. Структуру сверяет Block Matcher; реестр даёт имена, доки
	// и признак устаревания.
	{Name: "if", Block: true, Params: req("CONDITION"), Doc: "Renders the region when CONDITION is truthy."},
	{Name: "if_pure", Block: true, Params: req("CONDITION"), Doc: "Like #if, without trimming the region."},
	{Name: "each", Block: true, Params: req("ARRAY", "AS"), Doc: "Repeats the region for every element."},
	{Name: "pure", Block: true, Doc: "Region rendered without CBS processing."},
	{Name: "func", Block: true, Params: req("NAME"), Doc: "Defines a reusable region."},
	{Name: "when", Block: true, Params: req("CONDITION"), Deprecated: &Deprecation{Message: "#when is deprecated", Replacement: "#if"}},
}

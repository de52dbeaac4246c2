// Package token defines the lexical token kinds and the Token value
// produced by the preprocessor/lexer pipeline (spec.md §3 "Token").
package token

import "github.com/safec-lang/safecc/internal/sourcepos"

// Kind identifies the category of a token.
type Kind uint16

const (
	Error Kind = iota
	EOF

	// Literals
	IntLiteral
	FloatLiteral
	StringLiteral
	CharLiteral

	Ident

	// ---- Keywords (spec.md §3 closed set) ----
	KwStack
	KwHeap
	KwArena
	KwStatic
	KwUnsafe
	KwRegion
	KwGeneric
	KwConst
	KwConsteval
	KwIf
	KwElse
	KwMatch
	KwCase
	KwDefault
	KwStruct
	KwUnion
	KwEnum
	KwDefer
	KwSpawn
	KwNew
	KwTry
	KwPure
	KwNaked
	KwInterrupt
	KwNoreturn
	KwSection
	KwPacked
	KwMustUse
	KwNewtype
	KwTypeof
	KwAlignof
	KwFieldcount
	KwSizeof
	KwVolatileLoad
	KwVolatileStore
	KwAsm
	KwEscape // the "escape" modifier of "unsafe escape {}"

	// Control flow / declaration keywords a C-derived surface needs beyond
	// the literal list in spec.md §3 ("closed set including" is explicitly
	// non-exhaustive).
	KwFor
	KwWhile
	KwReturn
	KwBreak
	KwContinue
	KwTrue
	KwFalse
	KwVoid
	KwTypedef
	KwStaticAssert
	KwExtern
	KwInline
	KwVariadicPack // the `...` following a generic type-pack parameter name

	// Primitive type keywords.
	KwBool
	KwChar
	KwI8
	KwI16
	KwI32
	KwI64
	KwU8
	KwU16
	KwU32
	KwU64
	KwF32
	KwF64

	// ---- Operators ----
	Plus
	Minus
	Star
	Slash
	Percent
	Amp
	Pipe
	Caret
	Tilde
	Bang
	Lt
	Gt
	Eq
	Dot
	Question
	Comma

	PlusPlus
	MinusMinus
	AmpAmp
	PipePipe
	LtLt
	GtGt
	LtEq
	GtEq
	EqEq
	BangEq
	Arrow
	PlusEq
	MinusEq
	StarEq
	SlashEq
	PercentEq
	AmpEq
	PipeEq
	CaretEq
	LtLtEq
	GtGtEq
	ColonColon
	DotDot
	QuestionAmp // ?& nullable reference marker

	// Wrapping arithmetic (+| -| *|) and saturating arithmetic (+% -% *%).
	PlusPipe
	MinusPipe
	StarPipe
	PlusPercent
	MinusPercent
	StarPercent

	// Delimiters
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Colon
	At
	Underscore
	Ellipsis // C-style variadic `...`
)

var names = map[Kind]string{
	Error: "error", EOF: "EOF",
	IntLiteral: "int-literal", FloatLiteral: "float-literal",
	StringLiteral: "string-literal", CharLiteral: "char-literal", Ident: "identifier",
	KwStack: "stack", KwHeap: "heap", KwArena: "arena", KwStatic: "static",
	KwUnsafe: "unsafe", KwRegion: "region", KwGeneric: "generic", KwConst: "const",
	KwConsteval: "consteval", KwIf: "if", KwElse: "else", KwMatch: "match",
	KwCase: "case", KwDefault: "default", KwStruct: "struct", KwUnion: "union",
	KwEnum: "enum", KwDefer: "defer", KwSpawn: "spawn", KwNew: "new", KwTry: "try",
	KwPure: "pure", KwNaked: "naked", KwInterrupt: "interrupt", KwNoreturn: "noreturn",
	KwSection: "section", KwPacked: "packed", KwMustUse: "must_use", KwNewtype: "newtype",
	KwTypeof: "typeof", KwAlignof: "alignof", KwFieldcount: "fieldcount", KwSizeof: "sizeof",
	KwVolatileLoad: "volatile_load", KwVolatileStore: "volatile_store", KwAsm: "asm",
	KwEscape: "escape", KwFor: "for", KwWhile: "while", KwReturn: "return",
	KwBreak: "break", KwContinue: "continue", KwTrue: "true", KwFalse: "false",
	KwVoid: "void", KwTypedef: "typedef", KwStaticAssert: "static_assert",
	KwExtern: "extern", KwInline: "inline", KwVariadicPack: "...",
	KwBool: "bool", KwChar: "char", KwI8: "i8", KwI16: "i16", KwI32: "i32", KwI64: "i64",
	KwU8: "u8", KwU16: "u16", KwU32: "u32", KwU64: "u64", KwF32: "f32", KwF64: "f64",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Amp: "&", Pipe: "|",
	Caret: "^", Tilde: "~", Bang: "!", Lt: "<", Gt: ">", Eq: "=", Dot: ".",
	Question: "?", Comma: ",",
	PlusPlus: "++", MinusMinus: "--", AmpAmp: "&&", PipePipe: "||", LtLt: "<<", GtGt: ">>",
	LtEq: "<=", GtEq: ">=", EqEq: "==", BangEq: "!=", Arrow: "->", PlusEq: "+=",
	MinusEq: "-=", StarEq: "*=", SlashEq: "/=", PercentEq: "%=", AmpEq: "&=", PipeEq: "|=",
	CaretEq: "^=", LtLtEq: "<<=", GtGtEq: ">>=", ColonColon: "::", DotDot: "..",
	QuestionAmp: "?&", PlusPipe: "+|", MinusPipe: "-|", StarPipe: "*|",
	PlusPercent: "+%", MinusPercent: "-%", StarPercent: "*%",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semicolon: ";", Colon: ":", At: "@", Underscore: "_", Ellipsis: "...",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// Keywords maps keyword spellings to their Kind. Built once at init.
var Keywords = map[string]Kind{
	"stack": KwStack, "heap": KwHeap, "arena": KwArena, "static": KwStatic,
	"unsafe": KwUnsafe, "region": KwRegion, "generic": KwGeneric, "const": KwConst,
	"consteval": KwConsteval, "if": KwIf, "else": KwElse, "match": KwMatch,
	"case": KwCase, "default": KwDefault, "struct": KwStruct, "union": KwUnion,
	"enum": KwEnum, "defer": KwDefer, "spawn": KwSpawn, "new": KwNew, "try": KwTry,
	"pure": KwPure, "naked": KwNaked, "interrupt": KwInterrupt, "noreturn": KwNoreturn,
	"section": KwSection, "packed": KwPacked, "must_use": KwMustUse, "newtype": KwNewtype,
	"typeof": KwTypeof, "alignof": KwAlignof, "fieldcount": KwFieldcount, "sizeof": KwSizeof,
	"volatile_load": KwVolatileLoad, "volatile_store": KwVolatileStore, "asm": KwAsm,
	"escape": KwEscape, "for": KwFor, "while": KwWhile, "return": KwReturn,
	"break": KwBreak, "continue": KwContinue, "true": KwTrue, "false": KwFalse,
	"void": KwVoid, "typedef": KwTypedef, "static_assert": KwStaticAssert,
	"extern": KwExtern, "inline": KwInline,
	"bool": KwBool, "char": KwChar, "i8": KwI8, "i16": KwI16, "i32": KwI32, "i64": KwI64,
	"u8": KwU8, "u16": KwU16, "u32": KwU32, "u64": KwU64, "f32": KwF32, "f64": KwF64,
}

// IsPrimitiveType reports whether k spells a builtin primitive type name.
func IsPrimitiveType(k Kind) bool {
	switch k {
	case KwBool, KwChar, KwI8, KwI16, KwI32, KwI64, KwU8, KwU16, KwU32, KwU64, KwF32, KwF64, KwVoid:
		return true
	default:
		return false
	}
}

// Token is a single lexical token with its source span and literal text.
type Token struct {
	Kind  Kind
	Span  sourcepos.Range
	Value string // raw text for literals and identifiers
}

// Text returns the token's literal value (shorthand for Value).
func (t Token) Text() string { return t.Value }

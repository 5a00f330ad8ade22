package importer

// Canonical branch ids used across every carrier table. These mirror the
// branches reference table in the destination store.
const (
	BranchTrafik      = "TRAFIK"
	BranchKasko       = "KASKO"
	BranchDask        = "DASK"
	BranchKonut       = "KONUT"
	BranchIsyeri      = "ISYERI"
	BranchSaglik      = "SAGLIK"
	BranchHayat       = "HAYAT"
	BranchNakliyat    = "NAKLIYAT"
	BranchSorumluluk  = "SORUMLULUK"
	BranchFerdiKaza   = "FERDI KAZA"
	BranchYangin      = "YANGIN"
	BranchMuhendislik = "MUHENDISLIK"
	BranchTarim       = "TARIM"
	BranchSeyahat     = "SEYAHAT"
)

// Column fragments most carriers share. Individual descriptors extend or
// replace these where a carrier invents its own captions.
var commonColumns = ColumnMap{
	PolicyNo:             []string{"POLICE NO", "POLICE NUMARASI"},
	RenewalNo:            []string{"YENILEME NO", "TECDIT NO"},
	EndorsementNo:        []string{"ZEYIL NO", "ZEYL NO", "EK NO"},
	EndorsementType:      []string{"ZEYIL TIPI", "ZEYIL TURU", "ZEYIL KODU"},
	Branch:               []string{"BRANS", "URUN KODU", "URUN", "TARIFE"},
	Kind:                 []string{"POLICE TIPI", "ISLEM TURU", "KAYIT TIPI"},
	IssueDate:            []string{"TANZIM TARIHI", "TANZIM"},
	StartDate:            []string{"BASLANGIC TARIHI", "BASLAMA TARIHI", "BASLANGIC"},
	EndDate:              []string{"BITIS TARIHI", "BITIS"},
	EndorsementApproval:  []string{"ZEYIL ONAY TARIHI", "ZEYIL TANZIM TARIHI"},
	EndorsementEffective: []string{"ZEYIL BASLANGIC TARIHI", "ZEYIL YURURLUK TARIHI"},
	GrossPremium:         []string{"BRUT PRIM", "BRUT"},
	NetPremium:           []string{"NET PRIM", "NET"},
	Commission:           []string{"KOMISYON", "KOM"},
	// No bare VERGI fragment here: it would also claim the VERGI NO tax-id
	// header and read the 10-digit id as a money amount.
	Tax:        []string{"BSMV", "GIDER VERGISI", "VERGILER"},
	Name:       []string{"SIGORTALI ADI", "SIGORTALI AD", "ADI", "AD SOYAD", "SIGORTALI"},
	Surname:    []string{"SIGORTALI SOYADI", "SOYADI", "SOYAD"},
	NationalID: []string{"TC KIMLIK NO", "TCKN", "KIMLIK NO"},
	TaxID:      []string{"VERGI NO", "VERGI KIMLIK NO", "VKN"},
	Address:    []string{"ADRES"},
	Plate:      []string{"PLAKA", "PLAKA NO"},
	AgentCode:  []string{"ACENTE NO", "ACENTE KODU", "PARTAJ NO", "PARTAJ"},
}

// numericBranchTable covers the carriers still exporting the legacy Tramer
// numeric tariff codes.
var numericBranchTable = map[string]string{
	"310": BranchTrafik,
	"340": BranchKasko,
	"110": BranchYangin,
	"116": BranchDask,
	"199": BranchKonut,
	"150": BranchIsyeri,
	"610": BranchSaglik,
	"510": BranchHayat,
	"210": BranchNakliyat,
	"410": BranchSorumluluk,
	"710": BranchFerdiKaza,
	"810": BranchMuhendislik,
	"910": BranchTarim,
}

var alphaBranchTable = map[string]string{
	"TRAFIK":      BranchTrafik,
	"TRF":         BranchTrafik,
	"KASKO":       BranchKasko,
	"KSK":         BranchKasko,
	"DASK":        BranchDask,
	"ZDS":         BranchDask,
	"KONUT":       BranchKonut,
	"ISYERI":      BranchIsyeri,
	"SAGLIK":      BranchSaglik,
	"TSS":         BranchSaglik,
	"HAYAT":       BranchHayat,
	"NAKLIYAT":    BranchNakliyat,
	"SORUMLULUK":  BranchSorumluluk,
	"FERDI KAZA":  BranchFerdiKaza,
	"FK":          BranchFerdiKaza,
	"YANGIN":      BranchYangin,
	"MUHENDISLIK": BranchMuhendislik,
	"TARIM":       BranchTarim,
	"SEYAHAT":     BranchSeyahat,
	"SEYAHAT SAG": BranchSeyahat,
}

// withColumns clones the shared map and applies carrier-specific overrides.
func withColumns(override func(c *ColumnMap)) ColumnMap {
	c := commonColumns
	if override != nil {
		override(&c)
	}
	return c
}

// carrierParsers is the detection priority order. Descriptors with rare
// signature columns sit before the carriers whose required columns are the
// generic shared set — a generic parser matching first would misclassify
// files that both layouts satisfy.
var carrierParsers = []*CarrierParser{
	axaParser,
	sompoParser,
	gunesParser,
	zurichParser,
	neovaParser,
	mapfreParser,
	anadoluParser,
	allianzParser,
	aksigortaParser,
	eurekoXMLParser,
	ankaraXMLParser,
	// Generic layouts last.
	hdiParser,
	rayParser,
	dogaParser,
	quickParser,
	turkNipponParser,
}

var anadoluParser = &CarrierParser{
	ID:              "ANADOLU",
	Name:            "Anadolu Sigorta",
	FilePatterns:    []string{"ANADOLU", "AND URETIM"},
	FixedHeaderRow:  0,
	RequiredColumns: []string{"POLICE NO", "TANZIM TARIHI", "BRUT PRIM"},
	Columns: withColumns(func(c *ColumnMap) {
		c.Branch = []string{"TARIFE KODU", "TARIFE"}
	}),
	BranchTable: numericBranchTable,
	KindSignal:  SignalTypeColumn,
	CancelMarks: []string{"IPTAL", "IPT"},
}

var aksigortaParser = &CarrierParser{
	ID:              "AKSIGORTA",
	Name:            "Aksigorta",
	FilePatterns:    []string{"AKSIGORTA", "AKS PRODUKSIYON"},
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "BASLANGIC TARIHI", "NET PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     alphaBranchTable,
	KindSignal:      SignalBanner,
	CancelBanner:    []string{"IPTAL POLICELER", "IPTALLER"},
}

var allianzParser = &CarrierParser{
	ID:   "ALLIANZ",
	Name: "Allianz Sigorta",
	// Allianz prepends a three-row report banner before the real header.
	FilePatterns:    []string{"ALLIANZ", "AZ PRODUKSIYON"},
	FixedHeaderRow:  3,
	RequiredColumns: []string{"POLICE NO", "BRUT PRIM", "URUN"},
	Columns: withColumns(func(c *ColumnMap) {
		c.Branch = []string{"URUN ADI", "URUN"}
		c.Name = []string{"SIGORTA ETTIREN", "SIGORTALI ADI"}
	}),
	BranchTable: alphaBranchTable,
	KindSignal:  SignalPremiumSign,
}

var axaParser = &CarrierParser{
	ID:               "AXA",
	Name:             "Axa Sigorta",
	FilePatterns:     []string{"AXA"},
	FixedHeaderRow:   -1,
	RequiredColumns:  []string{"POLICE NO", "BRUT PRIM"},
	SignatureColumns: []string{"AXA REFERANS NO"},
	Columns: withColumns(func(c *ColumnMap) {
		c.Kind = []string{"ISLEM TURU"}
	}),
	BranchTable: alphaBranchTable,
	KindSignal:  SignalTypeColumn,
	CancelMarks: []string{"IPTAL", "I"},
}

var mapfreParser = &CarrierParser{
	ID:               "MAPFRE",
	Name:             "Mapfre Sigorta",
	FilePatterns:     []string{"MAPFRE"},
	FixedHeaderRow:   -1,
	RequiredColumns:  []string{"POLICE NO", "BRUT PRIM"},
	SignatureColumns: []string{"MAPFRE POLICY REF"},
	Columns: withColumns(func(c *ColumnMap) {
		c.Kind = []string{"TRANSACTION TYPE", "ISLEM TURU"}
	}),
	BranchTable: alphaBranchTable,
	KindSignal:  SignalTypeColumn,
	CancelMarks: []string{"CANCEL", "IPTAL"},
	// Mapfre's central system renders free-text dates US-style.
	MonthFirst: true,
}

var hdiParser = &CarrierParser{
	ID:              "HDI",
	Name:            "HDI Sigorta",
	FilePatterns:    []string{"HDI"},
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "NET PRIM", "BRUT PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     numericBranchTable,
	KindSignal:      SignalPremiumSign,
}

var sompoParser = &CarrierParser{
	ID:               "SOMPO",
	Name:             "Sompo Sigorta",
	FilePatterns:     []string{"SOMPO", "SJ URETIM"},
	FixedHeaderRow:   -1,
	RequiredColumns:  []string{"POLICE NO", "BRUT PRIM"},
	SignatureColumns: []string{"SOMPO URUN KODU"},
	Columns: withColumns(func(c *ColumnMap) {
		c.Branch = []string{"SOMPO URUN KODU", "URUN KODU"}
	}),
	BranchTable: numericBranchTable,
	KindSignal:  SignalTypeColumn,
	CancelMarks: []string{"IPTAL"},
}

var rayParser = &CarrierParser{
	ID:              "RAY",
	Name:            "Ray Sigorta",
	FilePatterns:    []string{"RAY"},
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "BRUT PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     alphaBranchTable,
	KindSignal:      SignalPremiumSign,
}

var gunesParser = &CarrierParser{
	ID:   "GUNES",
	Name: "Güneş Sigorta",
	// Two banner rows before the header on every Güneş export.
	FilePatterns:     []string{"GUNES"},
	FixedHeaderRow:   2,
	RequiredColumns:  []string{"POLICE NO", "BRUT PRIM"},
	SignatureColumns: []string{"UGM NO"},
	Columns:          withColumns(nil),
	BranchTable:      numericBranchTable,
	KindSignal:       SignalTypeColumn,
	CancelMarks:      []string{"IPTAL"},
}

var neovaParser = &CarrierParser{
	ID:               "NEOVA",
	Name:             "Neova Katılım Sigorta",
	FilePatterns:     []string{"NEOVA"},
	FixedHeaderRow:   -1,
	RequiredColumns:  []string{"POLICE NO", "NET PRIM"},
	SignatureColumns: []string{"KATILIM PRIMI"},
	Columns: withColumns(func(c *ColumnMap) {
		c.GrossPremium = []string{"KATILIM PRIMI", "BRUT PRIM"}
		c.Kind = []string{"KAYIT TIPI"}
	}),
	BranchTable: alphaBranchTable,
	KindSignal:  SignalTypeColumn,
	CancelMarks: []string{"IPTAL KAYDI", "IPTAL"},
}

var dogaParser = &CarrierParser{
	ID:              "DOGA",
	Name:            "Doğa Sigorta",
	FilePatterns:    []string{"DOGA"},
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "BRUT PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     alphaBranchTable,
	KindSignal:      SignalPremiumSign,
}

var quickParser = &CarrierParser{
	ID:              "QUICK",
	Name:            "Quick Sigorta",
	FilePatterns:    []string{"QUICK", "QS URETIM"},
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "PLAKA", "BRUT PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     alphaBranchTable,
	KindSignal:      SignalPremiumSign,
}

var zurichParser = &CarrierParser{
	ID:               "ZURICH",
	Name:             "Zurich Sigorta",
	FilePatterns:     []string{"ZURICH"},
	FixedHeaderRow:   -1,
	RequiredColumns:  []string{"POLICE NO", "BRUT PRIM"},
	SignatureColumns: []string{"ZURICH POLICY REF"},
	Columns: withColumns(func(c *ColumnMap) {
		c.Kind = []string{"TRANSACTION TYPE", "ISLEM TURU"}
	}),
	BranchTable: alphaBranchTable,
	KindSignal:  SignalTypeColumn,
	CancelMarks: []string{"CANCELLATION", "IPTAL"},
	MonthFirst:  true,
}

var turkNipponParser = &CarrierParser{
	ID:              "TURKNIPPON",
	Name:            "Türk Nippon Sigorta",
	FilePatterns:    []string{"TURK NIPPON", "TURKNIPPON", "TNS"},
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "NET PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     alphaBranchTable,
	KindSignal:      SignalPremiumSign,
}

// Machine-generated XML exports carry generic filenames, so these two are
// detected from document content only.

var eurekoXMLParser = &CarrierParser{
	ID:              "EUREKO",
	Name:            "Eureko Sigorta",
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "BRUT PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     alphaBranchTable,
	KindSignal:      SignalTypeColumn,
	CancelMarks:     []string{"IPTAL"},
	XMLRoot:         "PoliceListesi",
	XMLRowElem:      "Police",
	XMLSignature:    []string{"ZeyilNo", "BrutPrim"},
}

var ankaraXMLParser = &CarrierParser{
	ID:              "ANKARA",
	Name:            "Ankara Sigorta",
	FixedHeaderRow:  -1,
	RequiredColumns: []string{"POLICE NO", "NET PRIM"},
	Columns:         withColumns(nil),
	BranchTable:     numericBranchTable,
	KindSignal:      SignalPremiumSign,
	XMLRoot:         "UretimListesi",
	XMLRowElem:      "Kayit",
	XMLSignature:    []string{"TarifeKodu", "NetPrim"},
}

package astro

import (
	"fmt"
	"strings"
)

// constellations maps the 88 IAU abbreviations to Latin constellation names.
var constellations = map[string]string{
	"And": "Andromeda", "Ant": "Antlia", "Aps": "Apus", "Aqr": "Aquarius",
	"Aql": "Aquila", "Ara": "Ara", "Ari": "Aries", "Aur": "Auriga",
	"Boo": "Bootes", "Cae": "Caelum", "Cam": "Camelopardalis", "Cnc": "Cancer",
	"CVn": "Canes Venatici", "CMa": "Canis Major", "CMi": "Canis Minor",
	"Cap": "Capricornus", "Car": "Carina", "Cas": "Cassiopeia",
	"Cen": "Centaurus", "Cep": "Cepheus", "Cet": "Cetus", "Cha": "Chamaeleon",
	"Cir": "Circinus", "Col": "Columba", "Com": "Coma Berenices",
	"CrA": "Corona Australis", "CrB": "Corona Borealis", "Crv": "Corvus",
	"Crt": "Crater", "Cru": "Crux", "Cyg": "Cygnus", "Del": "Delphinus",
	"Dor": "Dorado", "Dra": "Draco", "Equ": "Equuleus", "Eri": "Eridanus",
	"For": "Fornax", "Gem": "Gemini", "Gru": "Grus", "Her": "Hercules",
	"Hor": "Horologium", "Hya": "Hydra", "Hyi": "Hydrus", "Ind": "Indus",
	"Lac": "Lacerta", "Leo": "Leo", "LMi": "Leo Minor", "Lep": "Lepus",
	"Lib": "Libra", "Lup": "Lupus", "Lyn": "Lynx", "Lyr": "Lyra",
	"Men": "Mensa", "Mic": "Microscopium", "Mon": "Monoceros",
	"Mus": "Musca", "Nor": "Norma", "Oct": "Octans", "Oph": "Ophiuchus",
	"Ori": "Orion", "Pav": "Pavo", "Peg": "Pegasus", "Per": "Perseus",
	"Phe": "Phoenix", "Pic": "Pictor", "Psc": "Pisces",
	"PsA": "Piscis Austrinus", "Pup": "Puppis", "Pyx": "Pyxis",
	"Ret": "Reticulum", "Sge": "Sagitta", "Sgr": "Sagittarius",
	"Sco": "Scorpius", "Scl": "Sculptor", "Sct": "Scutum",
	"Ser": "Serpens", "Sex": "Sextans", "Tau": "Taurus",
	"Tel": "Telescopium", "Tri": "Triangulum", "TrA": "Triangulum Australe",
	"Tuc": "Tucana", "UMa": "Ursa Major", "UMi": "Ursa Minor",
	"Vel": "Vela", "Vir": "Virgo", "Vol": "Volans", "Vul": "Vulpecula",
}

// Constellation extracts the constellation from a GCVS-style variable-star
// designation such as "RR Lyr", "V0523 Cas" or "bet Per". The constellation
// is the trailing genitive abbreviation of the designation. It returns the
// canonical IAU abbreviation and the Latin name.
func Constellation(designation string) (abbrev, name string, err error) {
	fields := strings.Fields(designation)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("designation %q carries no constellation", designation)
	}
	last := fields[len(fields)-1]
	for abbr, full := range constellations {
		if strings.EqualFold(abbr, last) {
			return abbr, full, nil
		}
	}
	return "", "", fmt.Errorf("unknown constellation %q in designation %q", last, designation)
}

// ConstellationName returns the Latin name for a canonical IAU abbreviation.
func ConstellationName(abbrev string) (string, bool) {
	name, ok := constellations[abbrev]
	return name, ok
}

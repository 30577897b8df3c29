// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"fmt"
	"strings"
	"unicode"
)

// DiseaseInfo describes a diagnosed condition and how to handle it.
type DiseaseInfo struct {
	Crop      string   `json:"crop"`
	Disease   string   `json:"disease"`
	Cause     []string `json:"cause"`
	Treatment []string `json:"treatment"`
}

// diseaseInfoTable maps class names (in the "Crop___Disease_Name" convention
// of the PlantVillage labels) to curated agronomy notes. Classes without an
// entry get a generic fallback from DiseaseInfoFor.
var diseaseInfoTable = map[string]DiseaseInfo{
	"Tomato___Bacterial_spot": {
		Crop:    "Tomato",
		Disease: "Bacterial Spot",
		Cause: []string{
			"Bacterial spot is caused by several species of gram-negative bacteria in the genus Xanthomonas.",
			"In culture, these bacteria produce yellow, mucoid colonies. A 'mass' of bacteria can be observed oozing from a lesion by making a cross-sectional cut through a leaf lesion, placing the tissue in a droplet of water, placing a cover-slip over the sample, and examining it with a microscope (~200X).",
		},
		Treatment: []string{
			"The primary management strategy of bacterial spot begins with use of certified pathogen-free seed and disease-free transplants.",
			"The bacteria do not survive well once host material has decayed, so crop rotation is recommended. Once the bacteria are introduced into a field or greenhouse, the disease is very difficult to control.",
			"Plants are routinely sprayed with copper-containing bactericides to maintain a 'protective' cover on the foliage and fruit.",
		},
	},
	"Tomato___Early_blight": {
		Crop:    "Tomato",
		Disease: "Early Blight",
		Cause: []string{
			"Early blight is caused by the fungus Alternaria solani.",
			"The fungus overwinters in infected plant debris and soil, and can be transmitted by wind, water, and insects.",
		},
		Treatment: []string{
			"Use resistant tomato varieties if available.",
			"Rotate crops and avoid planting tomatoes in the same soil for at least two years.",
			"Apply fungicides such as chlorothalonil or copper-based sprays.",
		},
	},
	"Tomato___Late_blight": {
		Crop:    "Tomato",
		Disease: "Late Blight",
		Cause: []string{
			"Late blight is caused by the oomycete pathogen Phytophthora infestans.",
			"It thrives in cool, wet weather and can spread rapidly, destroying entire crops if left unchecked.",
		},
		Treatment: []string{
			"Plant resistant varieties.",
			"Destroy infected plants immediately to prevent spread.",
			"Apply fungicides like mancozeb or chlorothalonil, especially during cool, wet weather.",
		},
	},
	"Apple___Apple_scab": {
		Crop:    "Apple",
		Disease: "Apple Scab",
		Cause: []string{
			"Caused by the fungus Venturia inaequalis.",
			"The fungus overwinters in fallen leaves and releases spores in the spring during wet weather.",
		},
		Treatment: []string{
			"Plant resistant apple varieties.",
			"Rake and destroy fallen leaves to reduce the source of infection.",
			"Apply fungicides such as captan or myclobutanil at the first sign of disease.",
		},
	},
	"Apple___Black_rot": {
		Crop:    "Apple",
		Disease: "Black Rot",
		Cause: []string{
			"Caused by the fungus Botryosphaeria obtusa.",
			"The pathogen infects fruit, leaves, and bark, often entering through wounds.",
		},
		Treatment: []string{
			"Prune out dead or diseased wood.",
			"Remove and destroy mummified fruit from the tree and ground.",
			"Apply fungicides during the growing season.",
		},
	},
	"Apple___Cedar_apple_rust": {
		Crop:    "Apple",
		Disease: "Cedar Apple Rust",
		Cause: []string{
			"Caused by the fungus Gymnosporangium juniperi-virginianae.",
			"Requires two hosts: apple trees and Eastern red cedar (or junipers) to complete its life cycle.",
		},
		Treatment: []string{
			"Remove nearby cedar or juniper trees if possible.",
			"Plant resistant apple varieties.",
			"Apply fungicides like immunox or sulfur during the spring.",
		},
	},
	"Corn_(maize)___Common_rust_": {
		Crop:    "Corn",
		Disease: "Common Rust",
		Cause: []string{
			"Caused by the fungus Puccinia sorghi.",
			"Spores are windblown and can travel long distances to infect corn plants.",
		},
		Treatment: []string{
			"Plant resistant corn hybrids.",
			"Fungicides may be necessary in severe cases or for sweet corn.",
		},
	},
	"Potato___Early_blight": {
		Crop:    "Potato",
		Disease: "Early Blight",
		Cause: []string{
			"Caused by the fungus Alternaria solani.",
			"Similar to tomato early blight, it survives in plant debris and soil.",
		},
		Treatment: []string{
			"Plant resistant potato varieties.",
			"Practice crop rotation.",
			"Apply fungicides preventatively.",
		},
	},
	"Potato___Late_blight": {
		Crop:    "Potato",
		Disease: "Late Blight",
		Cause: []string{
			"Caused by Phytophthora infestans.",
			"This is the same pathogen that caused the Irish Potato Famine.",
		},
		Treatment: []string{
			"Plant certified disease-free seed potatoes.",
			"Eliminate cull piles and volunteer potatoes.",
			"Apply fungicides regularly during the growing season.",
		},
	},
}

// DiseaseInfoFor returns the curated notes for a class name, or a generic
// fallback synthesized from the name: "Crop___Disease_Name" splits on the
// triple underscore, anything else treats the first underscore-separated word
// as the crop.
func DiseaseInfoFor(className string) DiseaseInfo {
	if info, ok := diseaseInfoTable[className]; ok {
		return info
	}

	if crop, disease, found := strings.Cut(className, "___"); found {
		return fallbackInfo(crop, strings.ReplaceAll(disease, "_", " "))
	}
	parts := strings.Split(className, "_")
	return fallbackInfo(parts[0], strings.Join(parts[1:], " "))
}

func fallbackInfo(crop, disease string) DiseaseInfo {
	return DiseaseInfo{
		Crop:    crop,
		Disease: titleCase(disease),
		Cause: []string{
			fmt.Sprintf("The specific cause for this %s on %s is currently being researched.", disease, crop),
			"It may be caused by fungal, bacterial, or viral pathogens common to this crop.",
		},
		Treatment: []string{
			"Isolate the affected plant to prevent spread.",
			"Remove infected leaves or parts.",
			"Consult a local agricultural extension expert for specific chemical or organic treatments.",
		},
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

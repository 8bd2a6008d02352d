package constants

var (
	// единица результата, если администратор её не указал
	DefaultResultUnits = map[string]string{
		"area":   "кг",
		"volume": "м³",
		"length": "м.п.",
		"pieces": "шт",
		"sheets": "листов",
		"custom": "ед.",
	}

	// подписи типов формул для админки
	FormulaTypeLabels = map[string]string{
		"area":   "По площади",
		"volume": "По объёму",
		"length": "По длине",
		"pieces": "Поштучно",
		"sheets": "Листовой материал",
		"custom": "Своя формула",
	}

	// параметры, которые ждёт каждый тип, подсказка для формы в админке
	FormulaTypeParams = map[string][]string{
		"area":   {"areaKey", "layersKey?"},
		"volume": {"volumeKey"},
		"length": {"lengthKey"},
		"pieces": {"areaKey", "unitAreaKey | unitArea"},
		"sheets": {"areaKey", "sheetArea | sheetLength+sheetWidth", "wastePercent?"},
		"custom": {"expression"},
	}
)

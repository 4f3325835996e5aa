package domain

// Правила бонусного счета и кешбэка. Все суммы — целые денежные единицы.
const (
	// MinBonusOrderTotal — минимальная сумма заказа для списания бонусов.
	// Заказ меньшей суммы не ошибка: бонусы просто не применяются.
	MinBonusOrderTotal = 500

	// BonusCapDivisor ограничивает списание половиной суммы заказа
	BonusCapDivisor = 2

	// CashbackPercent — процент кешбэка от итоговой суммы доставленного заказа
	CashbackPercent = 5
)

// EligibleBonus возвращает фактически применимую сумму бонусов для заказа
// на itemsTotal с доступным балансом balance и запрошенной суммой requested.
//
// Ниже минимального порога списание молча обнуляется. Иначе применяется
// min(половина суммы заказа, баланс, запрошенное). Отрицательный результат
// невозможен: все три аргумента неотрицательны на входе.
func EligibleBonus(itemsTotal, balance, requested int64) int64 {
	if requested <= 0 || itemsTotal < MinBonusOrderTotal {
		return 0
	}

	eligible := itemsTotal / BonusCapDivisor
	if balance < eligible {
		eligible = balance
	}
	if requested < eligible {
		eligible = requested
	}
	if eligible < 0 {
		return 0
	}
	return eligible
}

// CashbackFor возвращает сумму кешбэка за доставленный заказ:
// CashbackPercent процентов от итоговой цены, округление вниз.
func CashbackFor(totalPrice int64) int64 {
	if totalPrice <= 0 {
		return 0
	}
	return totalPrice * CashbackPercent / 100
}

package dialogue

const (
	msgChooseParams   = "Выберите параметры поиска:"
	msgNoParams       = "Параметры не выбраны."
	msgEnterValue     = "Введите значение для '%s':"
	msgFilterAdded    = "Добавлен фильтр: %s = %s"
	msgFiltersCleared = "Все параметры поиска очищены. Выберите заново:"
	msgNotANumber     = "Ошибка: %s должно быть числом."
	msgUnknownFilter  = "Неизвестный параметр. Выберите из списка:"
	msgUnknownInput   = "Не понимаю. Выберите действие в меню:"
	msgEmptyInput     = "Пожалуйста, отправьте текстовое сообщение."
	msgEnterTitle     = "Введите название объявления:"
	msgEnterPrice     = "Введите цену объявления:"
	msgPriceNotNumber = "Цена должна быть числом. Пожалуйста, введите цену снова:"
	msgRoomsNotNumber = "Количество комнат должно быть числом. Пожалуйста, введите значение снова:"
	msgListingAdded   = "Объявление успешно добавлено!"
	msgSaveFailed     = "Ошибка при сохранении: %s"
	msgSearchFailed   = "Ошибка при поиске: %s"
	msgNothingFound   = "Ничего не найдено. Попробуйте изменить параметры."
	msgResultsHeader  = "*Результаты поиска:*"
	msgNoListings     = "У вас нет объявлений."
	msgChooseDelete   = "Выберите объявление для удаления:"
	msgDeleted        = "Объявление удалено."
	msgDeleteFailed   = "Ошибка при удалении: %s"
	msgCancelled      = "Действие отменено."
	msgNoAddress      = "Адрес не указан"
	msgNoPrice        = "Цена не указана"
	msgUntitled       = "Без названия"
	msgOpenListing    = "Перейти к объявлению"
	msgCauseNotFound  = "объявление не найдено"
	msgCauseInvalidID = "неверный идентификатор"
	msgDraftLost      = "Черновик объявления не найден. Начните заново:"
)

// Button labels.
const (
	btnSearch        = "🔍 Поиск"
	btnAddListing    = "➕ Добавить объявление"
	btnDeleteListing = "🗑 Удалить объявление"
	btnMyListings    = "📂 Мои объявления"
	btnClearFilters  = "🗑 Очистить параметры"
	btnCancel        = "❌ Отмена"
)

const listingURL = "https://krisha.kz/a/show/%d"

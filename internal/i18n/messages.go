package i18n

import "golang.org/x/text/language"

var defaultMessages = map[language.Tag]map[string]string{
	language.Bulgarian: {
		"common:nav.home":   "Начало",
		"common:nav.login":  "Вход",
		"common:nav.logout": "Изход",

		"common:alerts.error":     "Възникна грешка. Моля, опитайте отново.",
		"common:alerts.not-found": "Страницата не е намерена.",
		"common:alerts.forbidden": "Нямате достъп до тази страница.",
		"common:hero.pause":       "Пауза",
		"common:hero.resume":      "Продължи",

		"campaigns:cta.donate":   "Дари",
		"campaigns:cta.expenses": "Разходи",
		"campaigns:hero.title":   "Кампании",
		"campaigns:empty":        "Няма активни кампании.",

		"expenses:title": "Разходи по кампанията",
		"expenses:total": "Общо",
		"expenses:empty": "Няма отчетени разходи.",

		"expenses:btns.add":          "Добави разход",
		"expenses:btns.save":         "Запази",
		"expenses:btns.back":         "Назад",
		"expenses:form-heading":      "Нов разход",
		"expenses:edit-form-heading": "Редакция на разход",

		"expenses:fields.type":        "Тип",
		"expenses:fields.status":      "Статус",
		"expenses:fields.currency":    "Валута",
		"expenses:fields.amount":      "Сума",
		"expenses:fields.description": "Описание",
		"expenses:fields.spentAt":     "Дата на разхода",
		"expenses:fields.files":       "Прикачени файлове",
		"expenses:uploaded-documents": "Качени документи",

		"expenses:alerts.new-row.success":  "Разходът беше добавен успешно.",
		"expenses:alerts.new-row.error":    "Грешка при добавяне на разход.",
		"expenses:alerts.edit-row.success": "Разходът беше редактиран успешно.",
		"expenses:alerts.edit-row.error":   "Грешка при редакция на разход.",
		"expenses:alerts.upload.error":     "Разходът е запазен, но файловете не бяха качени. Опитайте отново от страницата за редакция.",
		"expenses:errors.no-default-vault": "Кампанията няма избран трезор по подразбиране.",

		"validation:required":       "Полето е задължително.",
		"validation:email":          "Невалиден имейл.",
		"validation:invalid":        "Невалидна стойност.",
		"validation:invalid-option": "Невалидна опция.",
		"validation:max-length":     "Стойността е твърде дълга.",
		"validation:min-length":     "Стойността е твърде кратка.",
		"validation:uuid":           "Невалиден идентификатор.",
		"validation:min":            "Стойността е твърде малка.",
		"validation:number":         "Въведете число.",
		"validation:date":           "Невалидна дата.",

		"auth:alerts.welcome":       "Добре дошли!",
		"auth:alerts.invalid-login": "Невалиден имейл или парола.",
		"auth:fields.email":         "Имейл",
		"auth:fields.password":      "Парола",
		"auth:btns.login":           "Вход",
		"auth:btns.google":          "Вход с Google",

		"donation-flow:amount.title":                     "Изберете сума",
		"donation-flow:amount.submit":                    "Продължи",
		"donation-flow:payment-method.title":             "Как желаете да дарите?",
		"donation-flow:payment-method.field.method.card": "Карта",
		"donation-flow:payment-method.field.method.bank": "Банков превод",
		"donation-flow:payment-method.field.card-fee":    "Таксата на Stripe се изчислява според района на картодържателя: 1.2% + 0.5лв. за Европейската икономическа зона",
		"donation-flow:payment-method.field.bank-fee":    "Таксата за транзакция при банков превод зависи от индивидуалните условия на Вашата банка. от (0-4лв)",
		"donation-flow:payment-method.bank.beneficiary":  "Получател",
		"donation-flow:payment-method.bank.iban":         "IBAN",
		"donation-flow:payment-method.bank.bic":          "BIC",
		"donation-flow:payment-method.bank.bank-name":    "Банка",
		"donation-flow:payment-method.bank.reason":       "Основание за плащане",
		"donation-flow:options.taxes":                    "Искам да получа документ за данъчни облекчения",
		"donation-flow:options.recurring":                "Месечно дарение",
		"donation-flow:alerts.session-error":             "Неуспешно стартиране на плащането. Моля, опитайте отново.",
		"donation-flow:alerts.amount-required":           "Изберете сума, за да платите с карта.",

		"donation-flow:status.succeeded":  "Благодарим Ви за дарението!",
		"donation-flow:status.processing": "Плащането се обработва.",
		"donation-flow:status.failed":     "Плащането не беше успешно.",
	},
	language.English: {
		"common:nav.home":   "Home",
		"common:nav.login":  "Log in",
		"common:nav.logout": "Log out",

		"common:alerts.error":     "Something went wrong. Please try again.",
		"common:alerts.not-found": "Page not found.",
		"common:alerts.forbidden": "You do not have access to this page.",
		"common:hero.pause":       "Pause",
		"common:hero.resume":      "Resume",

		"campaigns:cta.donate":   "Donate",
		"campaigns:cta.expenses": "Expenses",
		"campaigns:hero.title":   "Campaigns",
		"campaigns:empty":        "No active campaigns.",

		"expenses:title": "Campaign expenses",
		"expenses:total": "Total",
		"expenses:empty": "No expenses reported.",

		"expenses:btns.add":          "Add expense",
		"expenses:btns.save":         "Save",
		"expenses:btns.back":         "Back",
		"expenses:form-heading":      "New expense",
		"expenses:edit-form-heading": "Edit expense",

		"expenses:fields.type":        "Type",
		"expenses:fields.status":      "Status",
		"expenses:fields.currency":    "Currency",
		"expenses:fields.amount":      "Amount",
		"expenses:fields.description": "Description",
		"expenses:fields.spentAt":     "Spent at",
		"expenses:fields.files":       "Attachments",
		"expenses:uploaded-documents": "Uploaded documents",

		"expenses:alerts.new-row.success":  "Expense created.",
		"expenses:alerts.new-row.error":    "Could not create the expense.",
		"expenses:alerts.edit-row.success": "Expense updated.",
		"expenses:alerts.edit-row.error":   "Could not update the expense.",
		"expenses:alerts.upload.error":     "The expense was saved but the files were not uploaded. Retry from the edit page.",
		"expenses:errors.no-default-vault": "The campaign has no default vault.",

		"validation:required":       "This field is required.",
		"validation:email":          "Invalid email.",
		"validation:invalid":        "Invalid value.",
		"validation:invalid-option": "Invalid option.",
		"validation:max-length":     "Value is too long.",
		"validation:min-length":     "Value is too short.",
		"validation:uuid":           "Invalid identifier.",
		"validation:min":            "Value is too small.",
		"validation:number":         "Enter a number.",
		"validation:date":           "Invalid date.",

		"auth:alerts.welcome":       "Welcome!",
		"auth:alerts.invalid-login": "Invalid email or password.",
		"auth:fields.email":         "Email",
		"auth:fields.password":      "Password",
		"auth:btns.login":           "Log in",
		"auth:btns.google":          "Continue with Google",

		"donation-flow:amount.title":                     "Choose an amount",
		"donation-flow:amount.submit":                    "Continue",
		"donation-flow:payment-method.title":             "How would you like to donate?",
		"donation-flow:payment-method.field.method.card": "Card",
		"donation-flow:payment-method.field.method.bank": "Bank transfer",
		"donation-flow:payment-method.field.card-fee":    "The Stripe fee depends on the card holder's region: 1.2% + 0.5 BGN in the European Economic Area",
		"donation-flow:payment-method.field.bank-fee":    "Bank transfer fees depend on your bank's terms, from 0 to 4 BGN",
		"donation-flow:payment-method.bank.beneficiary":  "Beneficiary",
		"donation-flow:payment-method.bank.iban":         "IBAN",
		"donation-flow:payment-method.bank.bic":          "BIC",
		"donation-flow:payment-method.bank.bank-name":    "Bank",
		"donation-flow:payment-method.bank.reason":       "Payment reference",
		"donation-flow:options.taxes":                    "I want a document for tax relief",
		"donation-flow:options.recurring":                "Monthly donation",
		"donation-flow:alerts.session-error":             "Could not start the payment. Please try again.",
		"donation-flow:alerts.amount-required":           "Choose an amount to pay by card.",

		"donation-flow:status.succeeded":  "Thank you for your donation!",
		"donation-flow:status.processing": "Your payment is processing.",
		"donation-flow:status.failed":     "The payment did not go through.",
	},
}

package conversation

const (
	textWelcome        = "Welcome to the fish shop! Please choose a product."
	textChooseProduct  = "Please choose a product."
	textAddedToCart    = "Added to cart."
	textCartEmpty      = "Your cart is empty."
	textAskEmail       = "Please send your email address."
	textPaymentRequest = "A payment request will be sent to %s."
	textSessionExpired = "Your session has expired. Press /start to open the catalog."
	textFailure        = "Something went wrong. Please try again."

	buttonCart = "Cart"
	buttonBack = "Back"
	buttonMenu = "Menu"
	buttonPay  = "Pay"
)

// quantityPresets are the add-to-cart amounts offered on a product card, in kg.
var quantityPresets = []int{1, 5, 10}
